package radiobrowser

// Station is a single directory entry describing a playable stream. All
// fields are plain strings and may be empty, but are never absent once a
// record has passed through normalization.
type Station struct {
	ID          string `json:"stationuuid"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	ResolvedURL string `json:"url_resolved"`
	Homepage    string `json:"homepage"`
	Favicon     string `json:"favicon"`
	Tags        string `json:"tags"`
	Country     string `json:"country"`
	Language    string `json:"language"`
}

// apiStation mirrors the wire schema, where each field is independently
// optional and may be JSON null.
type apiStation struct {
	ID          *string `json:"stationuuid"`
	Name        *string `json:"name"`
	URL         *string `json:"url"`
	ResolvedURL *string `json:"url_resolved"`
	Homepage    *string `json:"homepage"`
	Favicon     *string `json:"favicon"`
	Tags        *string `json:"tags"`
	Country     *string `json:"country"`
	Language    *string `json:"language"`
}

// ClickResponse is the directory's acknowledgement of a station click.
type ClickResponse struct {
	OK          string `json:"ok"`
	Message     string `json:"message"`
	StationUUID string `json:"stationuuid"`
	Name        string `json:"name"`
	URL         string `json:"url"`
}

func (a apiStation) station() Station {
	return Station{
		ID:          orEmpty(a.ID),
		Name:        orEmpty(a.Name),
		URL:         orEmpty(a.URL),
		ResolvedURL: orEmpty(a.ResolvedURL),
		Homepage:    orEmpty(a.Homepage),
		Favicon:     orEmpty(a.Favicon),
		Tags:        orEmpty(a.Tags),
		Country:     orEmpty(a.Country),
		Language:    orEmpty(a.Language),
	}
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
