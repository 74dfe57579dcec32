package model

// GeoInfo describes geographical information associated with an IP.
type GeoInfo struct {
	Country string
	City    string
	ISP     string
}

// IPResolver resolves an IP address to geographical information from a
// local database. It is used to fill in country/city when the identity
// endpoint reports an IP but no usable geolocation.
type IPResolver interface {
	Lookup(ip string) (GeoInfo, error)
}
