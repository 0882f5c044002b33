package waitlist

// rawEmail carries the untrimmed email from either request body; it has no validation tags.
type rawEmail struct {
	Email string `json:"email" form:"email"`
}

// JoinWaitlistRequest is the JSON body of POST /v1/waitlist.
type JoinWaitlistRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// SignupFormRequest is the landing page form post. An empty email is accepted here and
// leaves the form idle, since an empty field cannot submit.
type SignupFormRequest struct {
	Email string `form:"email" binding:"omitempty,email,max=255"`
}

type Feature struct {
	Icon        string
	Title       string
	Description string
}

// LandingPage is the data handed to the landing page template.
type LandingPage struct {
	Form         FormState
	InvalidEmail bool
	TwitterURL   string
	Features     []Feature
}

var landingFeatures = []Feature{
	{
		Icon:        "portal",
		Title:       "White-label client portal",
		Description: "Turn scattered communications into a premium branded experience. Custom domains, your design, your brand - all managed from one place.",
	},
	{
		Icon:        "scope",
		Title:       "Scope management that pays",
		Description: "Transform scope creep from a profit killer into a revenue stream. Track changes, assess impact, and manage client expectations effortlessly.",
	},
	{
		Icon:        "dashboard",
		Title:       "Project dashboard",
		Description: "Keep everything organized and visible. Track progress, manage timelines, and deliver updates - all with professional polish.",
	},
	{
		Icon:        "automation",
		Title:       "Smart automation",
		Description: "Save hours on routine tasks. Automated updates, scheduled check-ins, and intelligent assistance when you need it.",
	},
}

func newLandingPage(state FormState, twitterURL string) LandingPage {
	return LandingPage{
		Form:       state,
		TwitterURL: twitterURL,
		Features:   landingFeatures,
	}
}
