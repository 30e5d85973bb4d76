package progress

import "testing"

func TestTracker_CountsWithoutLiveDisplay(t *testing.T) {
	tr := New()
	tr.Add(3)
	tr.Tick()
	tr.Tick()

	done, total, _ := tr.snapshot()
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
	if done != 2 {
		t.Errorf("expected done 2, got %d", done)
	}
}

func TestTracker_AddBytesAccumulates(t *testing.T) {
	tr := New()
	tr.AddBytes(100)
	tr.AddBytes(50)

	_, _, bytes := tr.snapshot()
	if bytes != 150 {
		t.Errorf("expected 150 bytes, got %d", bytes)
	}
}
