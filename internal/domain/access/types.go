package access

type AccessState string

const (
	AccessFounding AccessState = "founding"
	AccessTrial    AccessState = "trial"
	AccessFull     AccessState = "full"
	AccessLimited  AccessState = "limited"
	AccessLocked   AccessState = "locked"
)

const (
	CapUpload   = "upload"
	CapPublish  = "publish"
	CapAITags   = "ai_tags"
	CapInsights = "insights"
	CapFeatured = "featured"
)

// ArtistTrialDays is the free listing period granted at artist signup.
const ArtistTrialDays = 30
