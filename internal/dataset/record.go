package dataset

// Record is one fully cleaned listing. Every field is present and
// within its declared range; no missing values survive preprocessing.
type Record struct {
	Location      string  `json:"location"`
	AreaSqft      float64 `json:"area_sqft"`
	BHK           int     `json:"bhk"`
	Bathrooms     int     `json:"bathrooms"`
	Floor         int     `json:"floor"`
	TotalFloors   int     `json:"total_floors"`
	AgeOfProperty float64 `json:"age_of_property"`
	Parking       int     `json:"parking"`
	Lift          int     `json:"lift"`
	ActualPrice   float64 `json:"actual_price"`
}

// FeatureRow builds the numeric feature vector for this record in the
// canonical feature order, with the location replaced by its encoded
// class.
func (r Record) FeatureRow(locationCode int) []float64 {
	return []float64{
		float64(locationCode),
		r.AreaSqft,
		float64(r.BHK),
		float64(r.Bathrooms),
		float64(r.Floor),
		float64(r.TotalFloors),
		r.AgeOfProperty,
		float64(r.Parking),
		float64(r.Lift),
	}
}
