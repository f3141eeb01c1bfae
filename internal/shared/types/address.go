package types

// Address represents a postal address
type Address struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Country  string `json:"country,omitempty"` // ISO 3166-1 alpha-2, default "GB"
}

// NewAddress creates a new address with GB as default country
func NewAddress(line1, city, postcode string) Address {
	return Address{
		Line1:    line1,
		City:     city,
		Postcode: postcode,
		Country:  "GB",
	}
}

// ContactInfo represents contact information
type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}
