package reference

// KeyDateType names one date tracked on a custody record. Handover dates are
// managed exclusively through the single upsert/delete path and are never
// touched by a bulk sentence-date replace.
type KeyDateType struct {
	Code        string
	Description string
	Handover    bool
}

// SentenceKeyDateTypes is the catalogue of sentence-level dates, in the order
// they appear in the consolidated history note of a bulk replace.
var SentenceKeyDateTypes = []KeyDateType{
	{Code: "CRD", Description: "Conditional Release Date"},
	{Code: "LED", Description: "Licence Expiry Date"},
	{Code: "HDE", Description: "HDC Eligibility Date"},
	{Code: "PED", Description: "Parole Eligibility Date"},
	{Code: "SED", Description: "Sentence Expiry Date"},
	{Code: "EXP", Description: "Expected Release Date"},
	{Code: "PSSED", Description: "PSS End Date"},
}

// HandoverKeyDateTypes tracks POM responsibility handover, maintained by the
// prison offender management service through the single key date operations.
var HandoverKeyDateTypes = []KeyDateType{
	{Code: "POM1", Description: "POM Handover expected start date", Handover: true},
	{Code: "POM2", Description: "RO responsibility handover from POM to OM expected date", Handover: true},
}

var keyDateTypesByCode = func() map[string]KeyDateType {
	m := make(map[string]KeyDateType, len(SentenceKeyDateTypes)+len(HandoverKeyDateTypes))
	for _, t := range SentenceKeyDateTypes {
		m[t.Code] = t
	}
	for _, t := range HandoverKeyDateTypes {
		m[t.Code] = t
	}
	return m
}()

// KeyDateTypeByCode looks up a key date type in the fixed catalogue.
func KeyDateTypeByCode(code string) (KeyDateType, bool) {
	t, ok := keyDateTypesByCode[code]
	return t, ok
}
