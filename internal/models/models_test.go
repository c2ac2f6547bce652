package models

import "testing"

func TestParseSensorKind(t *testing.T) {
	tests := []struct {
		in   string
		want SensorKind
	}{
		{"temperature", KindTemperature},
		{"pressure", KindPressure},
		{"radiation", KindRadiation},
		{"coolant_flow", KindCoolantFlow},
		{"neutron_flux", KindNeutronFlux},
		{"control_rods", KindControlRods},
		{"plutonium", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		if got := ParseSensorKind(tt.in); got != tt.want {
			t.Errorf("ParseSensorKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 0},
		{0, 0},
		{55, 55},
		{100, 100},
		{140, 100},
	}

	for _, tt := range tests {
		if got := ClampConfidence(tt.in); got != tt.want {
			t.Errorf("ClampConfidence(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSeverityForStatus(t *testing.T) {
	if sev, ok := SeverityForStatus(StatusWarning); !ok || sev != SeverityWarning {
		t.Errorf("SeverityForStatus(warning) = %q, %v", sev, ok)
	}
	if sev, ok := SeverityForStatus(StatusCritical); !ok || sev != SeverityCritical {
		t.Errorf("SeverityForStatus(critical) = %q, %v", sev, ok)
	}
	if _, ok := SeverityForStatus(StatusNormal); ok {
		t.Error("SeverityForStatus(normal) should not produce an alert severity")
	}
}
