package core

// Chapter identifies the student-branch chapter an event belongs to.
// The set is closed; role scoping and pricing both match on it exhaustively.
type Chapter string

const (
	ChapterCS    Chapter = "CS"
	ChapterPES   Chapter = "PES"
	ChapterRAS   Chapter = "RAS"
	ChapterWIE   Chapter = "WIE"
	ChapterSIGHT Chapter = "SIGHT"
)

var Chapters = []Chapter{ChapterCS, ChapterPES, ChapterRAS, ChapterWIE, ChapterSIGHT}

func (c Chapter) IsValid() bool {
	for _, ch := range Chapters {
		if c == ch {
			return true
		}
	}
	return false
}

func (c Chapter) String() string { return string(c) }
