package models

import "testing"

func TestBucketForUrgency(t *testing.T) {
	tests := []struct {
		urgency float64
		want    Bucket
	}{
		{0, BucketOptional},
		{70, BucketOptional},
		{70.01, BucketUpcoming},
		{90, BucketUpcoming},
		{90.01, BucketUrgent},
		{362.9, BucketUrgent},
	}
	for _, tt := range tests {
		if got := BucketForUrgency(tt.urgency); got != tt.want {
			t.Errorf("BucketForUrgency(%v) = %q, want %q", tt.urgency, got, tt.want)
		}
	}
}

func TestStatusForUrgency(t *testing.T) {
	tests := []struct {
		urgency float64
		want    UrgencyStatus
	}{
		{11.5, StatusOptional},
		{50, StatusUpcoming},
		{70, StatusSoon},
		{85, StatusUrgent},
		{99.99, StatusUrgent},
		{100, StatusOverdue},
		{363, StatusOverdue},
	}
	for _, tt := range tests {
		if got := StatusForUrgency(tt.urgency); got != tt.want {
			t.Errorf("StatusForUrgency(%v) = %q, want %q", tt.urgency, got, tt.want)
		}
	}
}

func TestRecommendationText(t *testing.T) {
	avg := 8.714
	days := 1.0
	tests := []struct {
		name    string
		urgency float64
		want    string
	}{
		{"optional", 11.5, "No rush on milk. You usually buy milk every 9 days. Last purchase: 1 days ago."},
		{"upcoming", 55, "Milk is coming up. You usually buy milk every 9 days. Last purchase: 1 days ago."},
		{"soon", 75, "Milk is due soon. You usually buy milk every 9 days. Last purchase: 1 days ago."},
		{"urgent", 90, "Milk is running low. You usually buy milk every 9 days. Last purchase: 1 days ago."},
		{"overdue", 363, "Time to restock milk. You usually buy milk every 9 days. Last purchase: 1 days ago."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecommendationText("milk", tt.urgency, &avg, &days); got != tt.want {
				t.Errorf("RecommendationText() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := RecommendationText("olive oil", 0, nil, &days); got != "Not enough data for olive oil predictions yet." {
		t.Errorf("RecommendationText() = %q", got)
	}
}

func TestAnalyticsID_Deterministic(t *testing.T) {
	a := AnalyticsID("user-1", "milk")
	if a != AnalyticsID("user-1", "milk") {
		t.Error("AnalyticsID is not stable")
	}
	if a == AnalyticsID("user-1", "wine") {
		t.Error("AnalyticsID collides across products")
	}
	if AnalyticsID("user-1x", "milk") == AnalyticsID("user-1", "xmilk") {
		t.Error("AnalyticsID collides across key boundaries")
	}
}

func TestProductAnalytics_PatternNeverNil(t *testing.T) {
	var a ProductAnalytics
	if a.Pattern() == nil {
		t.Error("Pattern() = nil")
	}
	a.SeasonalPattern = NewSeasonalPattern(map[string]float64{"Mon": 1})
	if a.Pattern()["Mon"] != 1 {
		t.Errorf("Pattern() = %v", a.Pattern())
	}
}
