package domain

// TagDetails is static reference data describing one tag value.
type TagDetails struct {
	Tag         string
	Label       string
	Description string
}

// IndividualTagCatalog returns the static catalog of individual tags.
// Labels are Swedish; the tag values themselves are stable API identifiers.
func IndividualTagCatalog() []TagDetails {
	return []TagDetails{
		{Tag: string(IndividualTagDancer), Label: "Dansare", Description: "Dansar socialt eller på scen."},
		{Tag: string(IndividualTagInstructor), Label: "Instruktör", Description: "Undervisar i dans."},
		{Tag: string(IndividualTagMusician), Label: "Musiker", Description: "Spelar dansmusik live."},
		{Tag: string(IndividualTagDJ), Label: "DJ", Description: "Spelar dansmusik på socialdans."},
		{Tag: string(IndividualTagOrganizer), Label: "Arrangör", Description: "Arrangerar danskvällar eller evenemang."},
		{Tag: string(IndividualTagPhotographer), Label: "Fotograf", Description: "Fotograferar dansevenemang."},
	}
}

// OrganizationTagCatalog returns the static catalog of organization tags.
func OrganizationTagCatalog() []TagDetails {
	return []TagDetails{
		{Tag: string(OrganizationTagAssociation), Label: "Dansförening", Description: "Ideell förening som ordnar socialdans."},
		{Tag: string(OrganizationTagFestival), Label: "Festival", Description: "Återkommande dansfestival."},
		{Tag: string(OrganizationTagBand), Label: "Band", Description: "Grupp som spelar dansmusik."},
		{Tag: string(OrganizationTagSchool), Label: "Dansskola", Description: "Skola med kursverksamhet."},
		{Tag: string(OrganizationTagCommunity), Label: "Community", Description: "Informell dansgemenskap."},
	}
}
