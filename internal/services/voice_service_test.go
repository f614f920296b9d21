package services

import "testing"

func TestPickVoice(t *testing.T) {
	tests := []struct {
		name          string
		arabicVoiceID string
		text          string
		want          string
	}{
		{"english text default voice", "voice-ar", "Summarize my open tasks for this week please", "voice-en"},
		{"arabic text arabic voice", "voice-ar", "ما هي المهام المتبقية لدي هذا الأسبوع؟", "voice-ar"},
		{"arabic text no arabic voice configured", "", "ما هي المهام المتبقية لدي هذا الأسبوع؟", "voice-en"},
		{"few arabic runes stay on default", "voice-ar", "the word سلام means peace", "voice-en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &VoiceService{voiceID: "voice-en", arabicVoiceID: tt.arabicVoiceID}
			if got := s.pickVoice(tt.text); got != tt.want {
				t.Errorf("pickVoice() = %q, want %q", got, tt.want)
			}
		})
	}
}
