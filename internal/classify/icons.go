package classify

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultColor is used for commodities without a dedicated color.
const DefaultColor = "#8D8D8D"

const globe = "🌍"

var commodityColors = map[string]string{
	Wine:             "#DD35DD",
	Beer:             "#ECA349",
	DistilledSpirits: "#5DCB8B",
}

// displayOrder is how commodities are listed everywhere in the UI.
var displayOrder = []string{Wine, Beer, DistilledSpirits}

var titleCaser = cases.Title(language.English)

// CommodityIcon returns the emoji shown next to a commodity.
func CommodityIcon(commodity string) string {
	switch strings.ToLower(commodity) {
	case "":
		return "❓"
	case Beer:
		return "🍺"
	case Wine:
		return "🍷"
	case DistilledSpirits:
		return "🍸"
	default:
		return "🍶"
	}
}

// CommodityColor returns the chart color of a commodity.
func CommodityColor(commodity string) string {
	if c, ok := commodityColors[commodity]; ok {
		return c
	}
	return DefaultColor
}

// DisplayName turns "distilled_spirits" into "Distilled Spirits".
func DisplayName(commodity string) string {
	return titleCaser.String(strings.ReplaceAll(commodity, "_", " "))
}

// OrderCommodities returns the distinct commodities with wine, beer and
// distilled spirits first and everything else sorted after them.
func OrderCommodities(commodities []string) []string {
	var out []string
	for _, c := range displayOrder {
		if slices.Contains(commodities, c) {
			out = append(out, c)
		}
	}

	var rest []string
	for _, c := range commodities {
		if !slices.Contains(displayOrder, c) && !slices.Contains(rest, c) {
			rest = append(rest, c)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

// FlagIcon picks a flag for an origin. A domestic source always wins; then
// an exact country or adjective match, then the longest whole-word match
// inside the origin. Imports and unrecognized origins fall back to a globe.
func FlagIcon(origin, source string) string {
	src := strings.ToLower(strings.TrimSpace(source))
	if src == Domestic {
		return flags["united states"]
	}

	o := strings.ToLower(strings.TrimSpace(origin))
	if o == "" {
		if src == Import {
			return globe
		}
		return ""
	}
	if strings.Contains(o, "domestic") {
		return flags["united states"]
	}
	if f, ok := flags[o]; ok {
		return f
	}

	padded := NormalizeClassType(o)
	best := ""
	for name := range flags {
		longer := len(name) > len(best) || (len(name) == len(best) && name < best)
		if longer && strings.Contains(padded, " "+name+" ") {
			best = name
		}
	}
	if best != "" {
		return flags[best]
	}

	if src == Import {
		return globe
	}
	switch o {
	case "unknown", "n/a", "none":
		return ""
	}
	return globe
}

var flags = map[string]string{
	"united states": "🇺🇸", "usa": "🇺🇸", "us": "🇺🇸", "american": "🇺🇸",
	"france": "🇫🇷", "french": "🇫🇷",
	"italy": "🇮🇹", "italian": "🇮🇹",
	"spain": "🇪🇸", "spanish": "🇪🇸",
	"germany": "🇩🇪", "german": "🇩🇪",
	"portugal": "🇵🇹", "portuguese": "🇵🇹",
	"chile": "🇨🇱", "chilean": "🇨🇱",
	"argentina": "🇦🇷", "argentine": "🇦🇷",
	"australia": "🇦🇺", "australian": "🇦🇺",
	"new zealand": "🇳🇿",
	"canada": "🇨🇦", "canadian": "🇨🇦",
	"mexico": "🇲🇽", "mexican": "🇲🇽",
	"japan": "🇯🇵", "japanese": "🇯🇵",
	"south africa": "🇿🇦",
	"austria": "🇦🇹", "austrian": "🇦🇹",
	"hungary": "🇭🇺", "hungarian": "🇭🇺",
	"greece": "🇬🇷", "greek": "🇬🇷",
	"turkey": "🇹🇷", "turkish": "🇹🇷",
	"israel": "🇮🇱",
	"lebanon": "🇱🇧",
	"india": "🇮🇳",
	"china": "🇨🇳", "chinese": "🇨🇳",
	"korea": "🇰🇷", "korean": "🇰🇷", "south korea": "🇰🇷",
	"brazil": "🇧🇷", "brazilian": "🇧🇷",
	"peru": "🇵🇪", "peruvian": "🇵🇪",
	"uruguay": "🇺🇾",
	"colombia": "🇨🇴", "colombian": "🇨🇴",
	"ecuador": "🇪🇨",
	"bolivia": "🇧🇴",
	"venezuela": "🇻🇪",
	"armenia": "🇦🇲", "armenian": "🇦🇲",
	"georgia": "🇬🇪", "georgian": "🇬🇪",
	"moldova": "🇲🇩",
	"ukraine": "🇺🇦", "ukrainian": "🇺🇦",
	"russia": "🇷🇺", "russian": "🇷🇺",
	"poland": "🇵🇱", "polish": "🇵🇱",
	"czech republic": "🇨🇿", "czech": "🇨🇿",
	"slovakia": "🇸🇰", "slovak": "🇸🇰",
	"slovenia": "🇸🇮",
	"croatia": "🇭🇷", "croatian": "🇭🇷",
	"serbia": "🇷🇸", "serbian": "🇷🇸",
	"bulgaria": "🇧🇬", "bulgarian": "🇧🇬",
	"romania": "🇷🇴", "romanian": "🇷🇴",
	"ireland": "🇮🇪", "irish": "🇮🇪",
	"scotland": "🏴", "scottish": "🏴",
	"england": "🏴", "english": "🏴",
	"wales": "🏴", "welsh": "🏴",
	"united kingdom": "🇬🇧", "uk": "🇬🇧", "britain": "🇬🇧", "british": "🇬🇧",
	"netherlands": "🇳🇱", "dutch": "🇳🇱",
	"belgium": "🇧🇪", "belgian": "🇧🇪",
	"switzerland": "🇨🇭", "swiss": "🇨🇭",
	"denmark": "🇩🇰", "danish": "🇩🇰",
	"sweden": "🇸🇪", "swedish": "🇸🇪",
	"norway": "🇳🇴", "norwegian": "🇳🇴",
	"finland": "🇫🇮", "finnish": "🇫🇮",
	"iceland": "🇮🇸", "icelandic": "🇮🇸",
	"luxembourg": "🇱🇺",
	"malta": "🇲🇹",
	"cyprus": "🇨🇾",
	"estonia": "🇪🇪",
	"latvia": "🇱🇻",
	"lithuania": "🇱🇹",
	"morocco": "🇲🇦", "moroccan": "🇲🇦",
	"tunisia": "🇹🇳",
	"algeria": "🇩🇿",
	"egypt": "🇪🇬", "egyptian": "🇪🇬",
	"ethiopia": "🇪🇹",
	"kenya": "🇰🇪",
	"madagascar": "🇲🇬",
	"thailand": "🇹🇭", "thai": "🇹🇭",
	"vietnam": "🇻🇳", "vietnamese": "🇻🇳",
	"cambodia": "🇰🇭",
	"laos": "🇱🇦",
	"myanmar": "🇲🇲",
	"philippines": "🇵🇭", "filipino": "🇵🇭",
	"indonesia": "🇮🇩", "indonesian": "🇮🇩",
	"malaysia": "🇲🇾",
	"singapore": "🇸🇬",
	"sri lanka": "🇱🇰",
	"bangladesh": "🇧🇩",
	"pakistan": "🇵🇰",
	"nepal": "🇳🇵",
	"bhutan": "🇧🇹",
	"mongolia": "🇲🇳",
	"taiwan": "🇹🇼",
	"hong kong": "🇭🇰",
	"macau": "🇲🇴",
}
