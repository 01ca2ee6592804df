package publishers

import "github.com/Skshirin/factify/internal/domain"

func sampleEvent() Event {
	return NewEvent(domain.FinalResponse{
		RequestID:      "req-1",
		InputKind:      domain.InputRawText,
		TextSnippet:    "Rahul Gandhi is from the male gender",
		ModelUsed:      "distilbert",
		Confidence:     0.91,
		FakePercentage: 9,
		RealPercentage: 91,
		Source:         domain.SourceEnsemble,
	})
}
