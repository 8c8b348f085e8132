package index

// Website is one indexed document: its identity, the metadata extracted
// from it, and its token count. The web_id assigned to a Website is its
// position in the index's website slice, not a field on the struct.
type Website struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	WordCount   int    `json:"word_count"`
}

// sidecarConfig is the on-disk shape of config.json.
type sidecarConfig struct {
	AvgLength   float64 `json:"avg_length"`
	WordCount   int     `json:"word_count"`
	NumSegments int     `json:"num_segments"`
}
