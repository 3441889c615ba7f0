package domain

// ModelOption describes one selectable whisper model preset.
type ModelOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SizeLabel   string `json:"sizeLabel,omitempty"`
	Description string `json:"description,omitempty"`
}

// WhisperModels lists the model sizes accepted by the local whisper engine,
// smallest first.
func WhisperModels() []ModelOption {
	return []ModelOption{
		{ID: "tiny", Name: "Tiny", SizeLabel: "75 MB", Description: "Fastest, lowest accuracy"},
		{ID: "base", Name: "Base", SizeLabel: "142 MB", Description: "Good balance of speed and accuracy"},
		{ID: "small", Name: "Small", SizeLabel: "466 MB", Description: "Better accuracy, slower"},
		{ID: "medium", Name: "Medium", SizeLabel: "1.5 GB", Description: "High accuracy"},
		{ID: "large", Name: "Large", SizeLabel: "2.9 GB", Description: "Best accuracy, slowest"},
	}
}
