package model

import "strings"

// PageType identifies the kind of page a placement rule applies to
type PageType string

const (
	PageTypeArticle  PageType = "article"
	PageTypeHomepage PageType = "homepage"
	PageTypeCategory PageType = "category"
	PageTypeSearch   PageType = "search"
	PageTypeProduct  PageType = "product"
)

// Position identifies where on the page a widget is injected
type Position string

const (
	PositionTop     Position = "top"
	PositionMiddle  Position = "middle"
	PositionBottom  Position = "bottom"
	PositionSidebar Position = "sidebar"
)

// Page is a single placement rule owned by one publisher
type Page struct {
	PageType PageType `json:"pageType"`
	Selector string   `json:"selector"`
	Position Position `json:"position"`
}

// Publisher describes where and how content widgets are injected for one
// site, plus its dashboards and metadata. PublisherID is immutable once
// created.
type Publisher struct {
	PublisherID        string   `json:"publisherId"`
	AliasName          string   `json:"aliasName"`
	Filename           string   `json:"filename"`
	IsActive           bool     `json:"isActive"`
	Pages              []Page   `json:"pages"`
	PublisherDashboard string   `json:"publisherDashboard"`
	MonitorDashboard   string   `json:"monitorDashboard"`
	QAStatusDashboard  string   `json:"qaStatusDashboard"`
	CustomCSS          string   `json:"customCss,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	AllowedDomains     []string `json:"allowedDomains,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

// PublisherPatch is a partial publisher update. Nil fields mean "no change
// requested" and are distinct from zero values, which request clearing.
type PublisherPatch struct {
	PublisherID        string    `json:"publisherId"`
	AliasName          *string   `json:"aliasName"`
	Filename           *string   `json:"filename"`
	IsActive           *bool     `json:"isActive"`
	Pages              *[]Page   `json:"pages"`
	PublisherDashboard *string   `json:"publisherDashboard"`
	MonitorDashboard   *string   `json:"monitorDashboard"`
	QAStatusDashboard  *string   `json:"qaStatusDashboard"`
	CustomCSS          *string   `json:"customCss"`
	Tags               *[]string `json:"tags"`
	AllowedDomains     *[]string `json:"allowedDomains"`
	Notes              *string   `json:"notes"`
}

// ToPublisher materializes a patch into a full publisher, used on the
// create path of an upsert. Absent fields take their zero values; an
// absent filename is derived from the alias.
func (p *PublisherPatch) ToPublisher() Publisher {
	pub := Publisher{PublisherID: p.PublisherID}
	if p.AliasName != nil {
		pub.AliasName = *p.AliasName
	}
	if p.Filename != nil {
		pub.Filename = *p.Filename
	} else {
		pub.Filename = DeriveFilename(pub.AliasName)
	}
	if p.IsActive != nil {
		pub.IsActive = *p.IsActive
	}
	if p.Pages != nil {
		pub.Pages = *p.Pages
	}
	if p.PublisherDashboard != nil {
		pub.PublisherDashboard = *p.PublisherDashboard
	}
	if p.MonitorDashboard != nil {
		pub.MonitorDashboard = *p.MonitorDashboard
	}
	if p.QAStatusDashboard != nil {
		pub.QAStatusDashboard = *p.QAStatusDashboard
	}
	if p.CustomCSS != nil {
		pub.CustomCSS = *p.CustomCSS
	}
	if p.Tags != nil {
		pub.Tags = *p.Tags
	}
	if p.AllowedDomains != nil {
		pub.AllowedDomains = *p.AllowedDomains
	}
	if p.Notes != nil {
		pub.Notes = *p.Notes
	}
	return pub
}

// DeriveFilename computes the config filename for an alias: lowercase,
// whitespace runs collapsed to single hyphens, ".json" suffix.
func DeriveFilename(alias string) string {
	fields := strings.Fields(strings.ToLower(alias))
	return strings.Join(fields, "-") + ".json"
}

// Pagination is the envelope returned alongside every list result.
// CurrentPage echoes the requested page verbatim, unclamped.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
}

// PublisherList is a page of publishers with its pagination envelope
type PublisherList struct {
	Data       []Publisher `json:"data"`
	Pagination Pagination  `json:"pagination"`
}
