package registry

import "github.com/alharis/haris/internal/haris/domain"

const (
	ut1Base         = "https://raw.githubusercontent.com/olbat/ut1-blacklists/master/blacklists/"
	sinfoniettaBase = "https://raw.githubusercontent.com/Sinfonietta/hostfiles/master/"
)

// defaultCategories is the built-in catalog.
var defaultCategories = []domain.Category{
	{
		Name:           "adult",
		Classification: domain.ClassificationMandatory,
		Sources: []domain.SourceDescriptor{
			{ID: "stevenblack-porn-only", URL: "https://raw.githubusercontent.com/StevenBlack/hosts/master/alternates/porn-only/hosts", Format: domain.SourceFormatHosts},
			{ID: "blocklistproject-porn", URL: "https://blocklistproject.github.io/Lists/alt-version/porn-nl.txt", Format: domain.SourceFormatPlain},
			{ID: "sinfonietta-pornography", URL: sinfoniettaBase + "pornography-hosts", Format: domain.SourceFormatHosts},
		},
	},
	{
		Name:           "gambling",
		Classification: domain.ClassificationMandatory,
		Sources: []domain.SourceDescriptor{
			{ID: "ut1-gambling", URL: ut1Base + "gambling/domains", Format: domain.SourceFormatPlain},
			{ID: "sinfonietta-gambling", URL: sinfoniettaBase + "gambling-hosts", Format: domain.SourceFormatHosts},
		},
	},
	{
		Name:           "social_media",
		Classification: domain.ClassificationOptional,
		Sources: []domain.SourceDescriptor{
			{ID: "ut1-social-networks", URL: ut1Base + "social_networks/domains", Format: domain.SourceFormatPlain},
			{ID: "sinfonietta-social", URL: sinfoniettaBase + "social-hosts", Format: domain.SourceFormatHosts},
		},
	},
	{
		Name:           "gaming",
		Classification: domain.ClassificationOptional,
		Sources: []domain.SourceDescriptor{
			{ID: "ut1-games", URL: ut1Base + "games/domains", Format: domain.SourceFormatPlain},
		},
	},
	{
		Name:           "chat",
		Classification: domain.ClassificationOptional,
		Sources: []domain.SourceDescriptor{
			{ID: "ut1-chat", URL: ut1Base + "chat/domains", Format: domain.SourceFormatPlain},
		},
	},
	{
		Name:           "video_streaming",
		Classification: domain.ClassificationOptional,
		Sources: []domain.SourceDescriptor{
			{ID: "beacon-video-streaming", URL: "https://raw.githubusercontent.com/st3v3nmw/beacon-dns-lists/main/blocklists/video-streaming", Format: domain.SourceFormatPlain},
		},
	},
	{
		Name:           "dating",
		Classification: domain.ClassificationOptional,
		Sources: []domain.SourceDescriptor{
			{ID: "ut1-dating", URL: ut1Base + "dating/domains", Format: domain.SourceFormatPlain},
		},
	},
	{
		Name:           "drugs",
		Classification: domain.ClassificationOptional,
		Sources: []domain.SourceDescriptor{
			{ID: "ut1-drugs", URL: ut1Base + "drogue/domains", Format: domain.SourceFormatPlain},
		},
	},
	{
		Name:           "piracy",
		Classification: domain.ClassificationOptional,
		Sources: []domain.SourceDescriptor{
			{ID: "hagezi-anti-piracy", URL: "https://raw.githubusercontent.com/hagezi/dns-blocklists/main/wildcard/anti.piracy-onlydomains.txt", Format: domain.SourceFormatPlain},
		},
	},
}

// Default returns the built-in catalog.
func Default() *Registry {
	r, err := New(defaultCategories...)
	if err != nil {
		panic("registry: invalid built-in catalog: " + err.Error())
	}
	return r
}
