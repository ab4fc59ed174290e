package job

import "testing"

func TestStage_Progress(t *testing.T) {
	tests := []struct {
		stage Stage
		want  float64
	}{
		{StageScript, 0},
		{StageImages, 0.25},
		{StageRender, 0.625},
		{Stage("unknown"), 0},
	}
	for _, tt := range tests {
		if got := tt.stage.Progress(); got != tt.want {
			t.Errorf("%s progress = %v, want %v", tt.stage, got, tt.want)
		}
	}
}

func TestJob_Finished(t *testing.T) {
	for status, want := range map[Status]bool{
		StatusQueued:    false,
		StatusRunning:   false,
		StatusSucceeded: true,
		StatusFailed:    true,
	} {
		j := &Job{Status: status}
		if j.Finished() != want {
			t.Errorf("%s finished = %v, want %v", status, j.Finished(), want)
		}
	}
}
