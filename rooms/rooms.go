// Package rooms declares the fixed catalog of juz chat rooms.
//
// The platform has exactly thirty rooms, one per juz of the Quran. Rooms are
// not created or destroyed at runtime; a room key is valid iff it appears in
// the catalog.
package rooms

import (
	"errors"
	"fmt"
)

// ErrUnknownRoom is returned for keys outside the catalog.
var ErrUnknownRoom = errors.New("unknown room key")

// Room is one entry of the catalog.
type Room struct {
	Key  int    `json:"key"`
	Name string `json:"name"`
}

var juzNames = []string{
	"الجزء الأول - سورة البقرة",
	"الجزء الثاني - البقرة",
	"الجزء الثالث - البقرة والآل عمران",
	"الجزء الرابع - آل عمران والنساء",
	"الجزء الخامس - النساء والمائدة",
	"الجزء السادس - المائدة والأنعام",
	"الجزء السابع - الأنعام والأعراف",
	"الجزء الثامن - الأنعام والأعراف والأنفال",
	"الجزء التاسع - التوبة",
	"الجزء العاشر - يونس وهود",
	"الجزء الحادي عشر - يوسف وهود",
	"الجزء الثاني عشر - هود ويوسف والرعد",
	"الجزء الثالث عشر - يوسف والرعد وإبراهيم",
	"الجزء الرابع عشر - الحجر والنحل",
	"الجزء الخامس عشر - الإسراء والكهف",
	"الجزء السادس عشر - الكهف ومريم وطه",
	"الجزء السابع عشر - الأنبياء والحج",
	"الجزء الثامن عشر - المؤمنون والنور والفرقان",
	"الجزء التاسع عشر - الشعراء والنمل",
	"الجزء العشرون - القصص والعنكبوت",
	"الجزء الحادي والعشرون - الروم ولقمان",
	"الجزء الثاني والعشرون - الأحزاب وسبأ",
	"الجزء الثالث والعشرون - يس والصافات",
	"الجزء الرابع والعشرون - غافر وفصلت",
	"الجزء الخامس والعشرون - الشورى والجاثية",
	"الجزء السادس والعشرون - الأحقاف والذاريات",
	"الجزء السابع والعشرون - الطور والنجم",
	"الجزء الثامن والعشرون - المجادلة والتغابن",
	"الجزء التاسع والعشرون - الملك والإنسان",
	"الجزء الثلاثون - النبأ والناس",
}

var catalog []Room

func init() {
	if len(juzNames) != 30 {
		panic(fmt.Sprintf("rooms: catalog has %d entries, want 30", len(juzNames)))
	}
	catalog = make([]Room, len(juzNames))
	for i, name := range juzNames {
		catalog[i] = Room{Key: i + 1, Name: name}
	}
}

// All returns the catalog in key order.
func All() []Room {
	out := make([]Room, len(catalog))
	copy(out, catalog)
	return out
}

// Get looks up a room by key.
func Get(key int) (Room, error) {
	if key < 1 || key > len(catalog) {
		return Room{}, fmt.Errorf("%w: %d", ErrUnknownRoom, key)
	}
	return catalog[key-1], nil
}

// Valid reports whether key is in the catalog.
func Valid(key int) bool {
	return key >= 1 && key <= len(catalog)
}
