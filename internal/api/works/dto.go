package works

// ---------- requests

// UploadArtworkForm is bound from the multipart fields sent next to the file.
type UploadArtworkForm struct {
	Title       string `form:"title" binding:"required,max=200"`
	Description string `form:"description" binding:"max=5000"`
	Medium      string `form:"medium" binding:"max=100"`
	Dimensions  string `form:"dimensions" binding:"max=100"`
	Year        *int   `form:"year" binding:"omitempty,gte=1000,lte=3000"`
	Price       string `form:"price"`
	Currency    string `form:"currency" binding:"omitempty,len=3"`
	Tags        string `form:"tags"`
}

type UpdateArtworkRequest struct {
	Title       *string   `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string   `json:"description" binding:"omitempty,max=5000"`
	Medium      *string   `json:"medium" binding:"omitempty,max=100"`
	Dimensions  *string   `json:"dimensions" binding:"omitempty,max=100"`
	Year        *int      `json:"year" binding:"omitempty,gte=1000,lte=3000"`
	Price       *float64  `json:"price" binding:"omitempty,gte=0"`
	Currency    *string   `json:"currency" binding:"omitempty,len=3"`
	Sold        *bool     `json:"sold"`
	Tags        *[]string `json:"tags"`
	Styles      *[]string `json:"styles"`
	Subjects    *[]string `json:"subjects"`
	Colors      *[]string `json:"colors"`
	Mood        *string   `json:"mood" binding:"omitempty,max=60"`
}

type ReorderArtworksRequest struct {
	ArtworkIDs []string `json:"artwork_ids" binding:"required"` // ordered list
}

// SearchQuery mirrors the query string of GET /api/search-artworks.
type SearchQuery struct {
	Q        string   `form:"q"`
	Medium   string   `form:"medium"`
	Style    string   `form:"style"`
	MinPrice *float64 `form:"min_price" binding:"omitempty,gte=0"`
	MaxPrice *float64 `form:"max_price" binding:"omitempty,gte=0"`
	Artist   string   `form:"artist"`
	Limit    int      `form:"limit" binding:"omitempty,gte=0"`
	Offset   int      `form:"offset" binding:"omitempty,gte=0"`
}
