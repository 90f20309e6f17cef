package watchdog

import "testing"

func TestMonitor_ThresholdTripsOnce(t *testing.T) {
	m := NewMonitor(3)

	m.ReportCritical("one")
	m.ReportCritical("two")

	select {
	case <-m.Restarts():
		t.Fatal("restart requested below threshold")
	default:
	}

	m.ReportCritical("three")

	select {
	case <-m.Restarts():
	default:
		t.Fatal("restart not requested at threshold")
	}

	if m.Count() != 0 {
		t.Errorf("count after trip = %d, want 0", m.Count())
	}
}

func TestMonitor_SuccessResets(t *testing.T) {
	m := NewMonitor(2)

	m.ReportCritical("blip")
	m.ReportSuccess()
	m.ReportCritical("another blip")

	select {
	case <-m.Restarts():
		t.Fatal("restart requested despite the reset in between")
	default:
	}

	if m.Count() != 1 {
		t.Errorf("count = %d, want 1", m.Count())
	}
}

func TestMonitor_ZeroThresholdDisabled(t *testing.T) {
	m := NewMonitor(0)

	for i := 0; i < 50; i++ {
		m.ReportCritical("noise")
	}

	select {
	case <-m.Restarts():
		t.Fatal("disabled monitor requested a restart")
	default:
	}
}
