package serialmux

import "testing"

func TestClassifyPayload(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{"0.42", EventTypePosition},
		{"  1 ", EventTypePosition},
		{`{"x":0.42}`, EventTypePosition},
		{`{"fw":"1.2","rate":60}`, EventTypeStatus},
		{`{"x":`, EventTypeUnknown},
		{"OK", EventTypeUnknown},
		{"", EventTypeUnknown},
	}
	for _, tt := range tests {
		if got := ClassifyPayload(tt.payload); got != tt.want {
			t.Errorf("ClassifyPayload(%q) = %q, want %q", tt.payload, got, tt.want)
		}
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    float64
		wantErr bool
	}{
		{name: "bare number", payload: "0.42", want: 0.42},
		{name: "json", payload: `{"x":0.75,"btn":1}`, want: 0.75},
		{name: "edge", payload: "1", want: 1},
		{name: "negative", payload: "-0.1", wantErr: true},
		{name: "too large", payload: `{"x":1.5}`, wantErr: true},
		{name: "missing x", payload: `{"y":0.5}`, wantErr: true},
		{name: "garbage", payload: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePosition(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePosition(%q) error = %v, wantErr %v", tt.payload, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParsePosition(%q) = %f, want %f", tt.payload, got, tt.want)
			}
		})
	}
}

func TestDeviceState(t *testing.T) {
	var d DeviceState
	if err := d.HandleStatus(`{"fw":"1.2","rate":60}`); err != nil {
		t.Fatalf("HandleStatus() error = %v", err)
	}
	if err := d.HandleStatus(`{"rate":30}`); err != nil {
		t.Fatalf("HandleStatus() error = %v", err)
	}
	if err := d.HandleStatus(`not json`); err == nil {
		t.Error("expected error for invalid JSON")
	}

	v := d.Values()
	if v["fw"] != "1.2" || v["rate"] != float64(30) {
		t.Errorf("Values() = %v", v)
	}
	v["fw"] = "mutated"
	if d.Values()["fw"] != "1.2" {
		t.Error("Values() should return a copy")
	}
}
