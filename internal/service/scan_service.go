package service

// ScanService stands in for a prescription-recognition pipeline. There is
// no real image analysis behind it: the scan flow is modeled explicitly
// as a stub collaborator that always yields the same canned extraction,
// so callers integrate against the final interface shape.
type ScanService struct{}

// ScanResult is one extracted medicine suggestion.
type ScanResult struct {
	Name  string   `json:"name"`
	Times []string `json:"times"`
}

// NewScanService constructs the stub.
func NewScanService() *ScanService {
	return &ScanService{}
}

// Scan ignores its input and returns the fixed suggestion list.
func (s *ScanService) Scan(_ []byte) []ScanResult {
	return []ScanResult{
		{Name: "Paracetamol 500mg", Times: []string{"08:00", "20:00"}},
		{Name: "Amoxicillin 250mg", Times: []string{"08:00", "14:00", "20:00"}},
		{Name: "Vitamin D3", Times: []string{"09:00"}},
	}
}
