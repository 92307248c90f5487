package layers

import "testing"

func TestBaseLayersDefaultActive(t *testing.T) {
	b := DefaultBaseLayers()
	if b.Active() != "streets" {
		t.Errorf("default active = %q", b.Active())
	}
	active := 0
	for _, l := range b.List() {
		if l.Active {
			active++
		}
	}
	if active != 1 {
		t.Errorf("active layers = %d, want exactly 1", active)
	}
}

func TestBaseLayersSwitch(t *testing.T) {
	b := DefaultBaseLayers()
	if !b.SetActive("satellite") {
		t.Fatal("known layer rejected")
	}
	if b.Active() != "satellite" {
		t.Errorf("active = %q", b.Active())
	}
	for _, l := range b.List() {
		if l.Active != (l.ID == "satellite") {
			t.Errorf("layer %s active = %v", l.ID, l.Active)
		}
	}
	if b.SetActive("mars") {
		t.Error("unknown layer accepted")
	}
	if b.Active() != "satellite" {
		t.Error("failed switch changed the active layer")
	}
}
