package progress

// Stage names the pipeline phase an event belongs to.
type Stage string

const (
	StageScan        Stage = "scanning"
	StageExtract     Stage = "extracting"
	StageNested      Stage = "nested"
	StageConsolidate Stage = "consolidating"
	StageSkipping    Stage = "skipping"
	StageDevice      Stage = "device"
	StageReorganize  Stage = "reorganizing"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Event is one progress notification. Percent is in [0, 100] relative to the
// unit of work the reporter was scoped to (usually one game).
type Event struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
	Percent int    `json:"percent"`
	TitleID string `json:"title_id,omitempty"`
}

// Func receives progress events. A nil Func discards them.
type Func func(Event)

// Emit delivers e when f is set.
func (f Func) Emit(e Event) {
	if f != nil {
		f(e)
	}
}

// Band is a sub-range of a game's 0-100 progress.
type Band struct {
	Lo int
	Hi int
}

// Per-game bands: extraction occupies 0-50, split between the top-level pass
// and the nested pass, and consolidation 50-100. Device targets split the
// second half between staging and publishing.
var (
	BandExtractOuter     = Band{Lo: 0, Hi: 30}
	BandExtractNested    = Band{Lo: 30, Hi: 50}
	BandConsolidate      = Band{Lo: 50, Hi: 100}
	BandConsolidateStage = Band{Lo: 50, Hi: 75}
	BandDevicePublish    = Band{Lo: 75, Hi: 100}
	BandFull             = Band{Lo: 0, Hi: 100}
)

// Scale maps a 0-100 percentage into the band.
func (b Band) Scale(percent int) int {
	percent = clamp(percent)
	return b.Lo + (b.Hi-b.Lo)*percent/100
}

// Step maps item index of total into the band. index is zero based; the
// result is the position at which that item starts.
func (b Band) Step(index, total int) int {
	if total <= 0 {
		return b.Lo
	}
	return b.Scale(index * 100 / total)
}

// Scoped returns a Func that rescales incoming percentages into band before
// forwarding them to f.
func Scoped(f Func, band Band) Func {
	if f == nil {
		return nil
	}
	return func(e Event) {
		e.Percent = band.Scale(e.Percent)
		f(e)
	}
}

// Tagged returns a Func that stamps titleID on events lacking one.
func Tagged(f Func, titleID string) Func {
	if f == nil {
		return nil
	}
	return func(e Event) {
		if e.TitleID == "" {
			e.TitleID = titleID
		}
		f(e)
	}
}

func clamp(percent int) int {
	switch {
	case percent < 0:
		return 0
	case percent > 100:
		return 100
	default:
		return percent
	}
}
