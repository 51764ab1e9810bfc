package models

const (
	FramingNegative = "negative"
	FramingPositive = "positive"
)

type SymptomType struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null;uniqueIndex"`
	Icon      string `gorm:"not null"`
	Color     string `gorm:"not null"`
	Framing   string `gorm:"not null;default:negative"`
	IsBuiltin bool   `gorm:"not null;default:false"`
}

// IsPositive reports whether a higher severity means the user feels better.
func (symptom SymptomType) IsPositive() bool {
	return symptom.Framing == FramingPositive
}

type BuiltinSymptom struct {
	Name    string
	Icon    string
	Color   string
	Framing string
}

func DefaultBuiltinSymptoms() []BuiltinSymptom {
	return []BuiltinSymptom{
		{Name: "Headache", Icon: "🤕", Color: "#FFA500", Framing: FramingNegative},
		{Name: "Fatigue", Icon: "😴", Color: "#95A5A6", Framing: FramingNegative},
		{Name: "Joint pain", Icon: "🦴", Color: "#8E6E53", Framing: FramingNegative},
		{Name: "Brain fog", Icon: "🌫️", Color: "#7F8C8D", Framing: FramingNegative},
		{Name: "Nausea", Icon: "🤢", Color: "#7CB342", Framing: FramingNegative},
		{Name: "Cramps", Icon: "🩸", Color: "#FF4444", Framing: FramingNegative},
		{Name: "Anxiety", Icon: "😟", Color: "#9B59B6", Framing: FramingNegative},
		{Name: "Energy", Icon: "⚡", Color: "#F1C40F", Framing: FramingPositive},
		{Name: "Mood", Icon: "🙂", Color: "#3498DB", Framing: FramingPositive},
		{Name: "Sleep quality", Icon: "🌙", Color: "#5C6BC0", Framing: FramingPositive},
	}
}
