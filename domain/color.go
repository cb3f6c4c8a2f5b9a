package domain

import "math/rand"

// Color is a symbolic palette entry. Name is the stable identifier used at
// the persistence boundary; the remaining attributes are display hints
// passed through to the presentation layer untouched.
type Color struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Text  string `json:"text"`
	Ring  string `json:"ring"`
}

// Palette is the fixed set of category colors.
var Palette = []Color{
	{Name: "Classic Gray", Value: "bg-gray-50 border-gray-200", Text: "text-gray-700", Ring: "ring-gray-400"},
	{Name: "Ocean Blue", Value: "bg-blue-50 border-blue-200", Text: "text-blue-700", Ring: "ring-blue-400"},
	{Name: "Sage Green", Value: "bg-emerald-50 border-emerald-200", Text: "text-emerald-700", Ring: "ring-emerald-400"},
	{Name: "Sunny Yellow", Value: "bg-amber-50 border-amber-200", Text: "text-amber-700", Ring: "ring-amber-400"},
	{Name: "Rose Red", Value: "bg-rose-50 border-rose-200", Text: "text-rose-700", Ring: "ring-rose-400"},
	{Name: "Lavender", Value: "bg-violet-50 border-violet-200", Text: "text-violet-700", Ring: "ring-violet-400"},
	{Name: "Peach", Value: "bg-orange-50 border-orange-200", Text: "text-orange-700", Ring: "ring-orange-400"},
	{Name: "Blush Pink", Value: "bg-pink-50 border-pink-200", Text: "text-pink-700", Ring: "ring-pink-400"},
}

// ColorByName resolves a palette entry by its stable name. Unknown names
// fall back to the first palette entry so rows written by an older palette
// still render.
func ColorByName(name string) Color {
	for _, c := range Palette {
		if c.Name == name {
			return c
		}
	}
	return Palette[0]
}

// RandomColor picks a palette entry for quick-added categories.
func RandomColor() Color {
	return Palette[rand.Intn(len(Palette))]
}
