package books

type CreateBookPayload struct {
	ID      string `json:"id,omitempty" validate:"omitempty,max=64"`
	Title   string `json:"title" mod:"trim" validate:"required,max=300"`
	Content string `json:"content" validate:"required"`
	Cover   string `json:"cover,omitempty"`
	WPM     *int   `json:"wpm,omitempty" validate:"omitempty,min=60,max=2000"`
}

type RetrieveBookQuery struct {
	Content bool `query:"content" json:"content,omitempty"`
	Cover   bool `query:"cover" json:"cover,omitempty"`
}

type UpdateReadingPositionPayload struct {
	Progress     float64 `json:"progress" validate:"min=0,max=1"`
	CurrentIndex int     `json:"currentIndex" validate:"min=0"`
	WPM          *int    `json:"wpm,omitempty" validate:"omitempty,min=60,max=2000"`
}
