package sessions

type CreateSessionPayload struct {
	ID              string `json:"id,omitempty" validate:"omitempty,max=64"`
	BookID          string `json:"bookId" validate:"required,max=64"`
	Timestamp       int64  `json:"timestamp" validate:"min=0"`
	DurationSeconds int    `json:"durationSeconds" validate:"min=0"`
	WordsRead       int    `json:"wordsRead" validate:"min=0"`
	AverageWPM      int    `json:"averageWpm" validate:"min=0"`
}

type ListSessionsQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=500"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	BookID *string `query:"book_id" json:"book_id,omitempty" validate:"omitempty,max=64"`
}
