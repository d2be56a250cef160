package modeldriven

import "strings"

// Form control class ids -> friendly type names. The table is static; an
// unknown class id maps to "Field".
var classIDTypes = map[string]string{
	"{4273EDBD-2EF1-4278-BB2D-FE8E0E4BC4D6}": "Text",
	"{E0DECE4B-6FC8-4A8F-A065-082708572369}": "Text Area",
	"{270BD3DB-D9AF-4782-9025-509E298DEC0A}": "Lookup",
	"{B0C6723A-8503-4FD7-BB28-C8A06AC933C2}": "Checkbox",
	"{3EF39988-22BB-4F0B-BBBE-64B5A3748AEE}": "Option Set",
	"{5B773807-9FB2-42DB-97C3-7A91EFF8ADFF}": "Date Time",
	"{C6D124CA-7EDA-4A60-AEA9-7FB8D318B68F}": "Whole Number",
	"{C3EFE0C3-0EC6-42BE-8349-CBD9079DFD8E}": "Decimal",
	"{533B9E00-756B-4312-95A0-DC888637AC78}": "Currency",
	"{E7A81278-8635-4D9E-8D4D-59480B391C5B}": "Subgrid",
	"{FD2A7985-3187-444E-908D-6624B21F69C0}": "IFrame",
	"{9FDF5F91-88B1-47F4-AD53-C11EFC01A01D}": "Web Resource",
	"{06375649-C143-495E-A496-C962E5B4488E}": "Notes",
	"{F9A8A302-114E-466A-B582-6771B2AE0D92}": "Custom Control",
}

// Class id assigned to component-framework (PCF) control hosts.
const pcfClassID = "{F9A8A302-114E-466A-B582-6771B2AE0D92}"

const defaultControlType = "Field"

// friendlyType resolves a class id to its friendly type name.
func friendlyType(classID string) string {
	if t, ok := classIDTypes[normalizeClassID(classID)]; ok {
		return t
	}
	return defaultControlType
}

func normalizeClassID(classID string) string {
	s := strings.ToUpper(strings.TrimSpace(classID))
	if s == "" {
		return s
	}
	if !strings.HasPrefix(s, "{") {
		s = "{" + s + "}"
	}
	return s
}
