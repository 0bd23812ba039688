package dto

// CityResponse is one serviceable metro area.
type CityResponse struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// ServiceCategoryResponse is one offered trade.
type ServiceCategoryResponse struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}
