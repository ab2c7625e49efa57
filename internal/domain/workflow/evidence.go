package workflow

// EvidenceKind names the piece of guard evidence a transition reads
type EvidenceKind string

const (
	EvidenceNone            EvidenceKind = ""
	EvidenceCollections     EvidenceKind = "collections"
	EvidenceProcessingSteps EvidenceKind = "processing_steps"
	EvidenceQCResults       EvidenceKind = "qc_results"
	EvidenceQADecision      EvidenceKind = "qa_decision"
	EvidenceLyophilization  EvidenceKind = "lyophilization"
)

// String returns the string representation of the evidence kind
func (k EvidenceKind) String() string {
	return string(k)
}

// Evidence is the caller-supplied fact a guard evaluates.
// The set of implementations is closed: one struct per guarded transition family.
type Evidence interface {
	Kind() EvidenceKind
	evidence()
}

// Collections counts the collection events recorded against a CM lot
type Collections struct {
	Count int
}

// ProcessingSteps counts the processing steps recorded against a CM lot
type ProcessingSteps struct {
	Count int
}

// QCResults pairs the required QC test codes with the number of results recorded
type QCResults struct {
	Required []string
	Recorded int
}

// QADecision reports whether a QA release decision exists for the lot
type QADecision struct {
	Recorded bool
}

// Lyophilization reports whether a pack lot must be freeze-dried before packing
type Lyophilization struct {
	Required bool
}

func (Collections) Kind() EvidenceKind     { return EvidenceCollections }
func (ProcessingSteps) Kind() EvidenceKind { return EvidenceProcessingSteps }
func (QCResults) Kind() EvidenceKind       { return EvidenceQCResults }
func (QADecision) Kind() EvidenceKind      { return EvidenceQADecision }
func (Lyophilization) Kind() EvidenceKind  { return EvidenceLyophilization }

func (Collections) evidence()     {}
func (ProcessingSteps) evidence() {}
func (QCResults) evidence()       {}
func (QADecision) evidence()      {}
func (Lyophilization) evidence()  {}

// Guard is a business precondition attached to a single transition.
// Check receives nil when the caller supplied no evidence of the expected kind.
type Guard struct {
	Evidence EvidenceKind
	Check    func(ev Evidence) bool
	Message  string
}

func (g Guard) allows(ev Evidence) bool {
	if ev != nil && ev.Kind() != g.Evidence {
		ev = nil
	}
	return g.Check(ev)
}
