package pennylane

import "encoding/json"

// pageEnvelope is the cursor-paginated response wrapper used by every
// listing endpoint.
type pageEnvelope struct {
	Items      []json.RawMessage `json:"items"`
	HasMore    bool              `json:"has_more"`
	NextCursor *string           `json:"next_cursor"`
}

// CompanyProfile is the account identity returned by the /me endpoint.
type CompanyProfile struct {
	Company struct {
		ID   json.Number `json:"id"`
		Name string      `json:"name"`
	} `json:"company"`
}

// CompanyName returns the account's company name, empty when the
// provider omitted it.
func (p *CompanyProfile) CompanyName() string {
	if p == nil {
		return ""
	}
	return p.Company.Name
}
