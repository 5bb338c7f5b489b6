package models

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Location struct {
	Lon, Lat float64
}

func NewGeoPoint(lon, lat float64) Location {
	return Location{
		Lon: lon,
		Lat: lat,
	}
}

// Scan reads a PostGIS point, either raw EWKB or its hex text form.
func (g *Location) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case string:
		var err error
		data, err = hex.DecodeString(v)
		if err != nil {
			return err
		}
	case []byte:
		data = v
	default:
		return fmt.Errorf("expected string or []byte, got %T", value)
	}

	t, err := ewkb.Unmarshal(data)
	if err != nil {
		return err
	}

	if point, ok := t.(*geom.Point); ok {
		g.Lon = point.X()
		g.Lat = point.Y()

		return nil
	}

	return fmt.Errorf("expected Point, got %T", t)
}

func (g Location) GormDataType() string {
	return "geometry(Point,4326)"
}

func (g Location) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	return clause.Expr{
		SQL:  "ST_SetSRID(ST_PointFromText(?), 4326)",
		Vars: []interface{}{g.WKT()},
	}
}

func (g Location) WKT() string {
	return fmt.Sprintf("POINT(%f %f)", g.Lon, g.Lat)
}

// SuggestionEvent is published once per answered suggestion request.
type SuggestionEvent struct {
	RequestID    string    `json:"request_id"`
	Session      string    `json:"session,omitempty"`
	Lang         string    `json:"lang"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	City         string    `json:"city"`
	District     string    `json:"district,omitempty"`
	TempC        float64   `json:"temp_c"`
	Sky          string    `json:"sky,omitempty"`
	Humidity     int       `json:"humidity"`
	Surroundings []string  `json:"surroundings"`
	Intents      []string  `json:"intents"`
	Suggestion   string    `json:"suggestion"`
	Reason       string    `json:"reason"`
	ImageURL     string    `json:"image_url,omitempty"`
	LocalTime    time.Time `json:"local_time"`
	CreatedAt    time.Time `json:"created_at"`
}

func (e *SuggestionEvent) Validate() error {
	if e.RequestID == "" {
		return fmt.Errorf("request_id is required")
	}
	if e.Suggestion == "" {
		return fmt.Errorf("suggestion is required")
	}

	return nil
}

type SuggestionRecord struct {
	ID           uint64         `gorm:"primaryKey" json:"id"`
	RequestID    string         `gorm:"uniqueIndex" json:"request_id"`
	Session      string         `gorm:"index" json:"session"`
	Lang         string         `json:"lang"`
	City         string         `json:"city"`
	District     string         `json:"district"`
	Location     Location       `json:"location"`
	TempC        float64        `json:"temp_c"`
	Sky          string         `json:"sky"`
	Humidity     int            `json:"humidity"`
	Surroundings pq.StringArray `gorm:"type:text[]" json:"surroundings"`
	Intents      pq.StringArray `gorm:"type:text[]" json:"intents"`
	Suggestion   string         `json:"suggestion"`
	Reason       string         `json:"reason"`
	ImageURL     string         `json:"image_url"`
	LocalTime    time.Time      `json:"local_time"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (r *SuggestionRecord) TableName() string {
	return "suggestions"
}

func (r *SuggestionRecord) Stringify() string {
	return fmt.Sprintf("Suggestion: %s, City: %s, Intents: %s", r.Suggestion, r.City, strings.Join(r.Intents, ", "))
}

func NewSuggestionRecord(e SuggestionEvent) SuggestionRecord {
	return SuggestionRecord{
		RequestID:    e.RequestID,
		Session:      e.Session,
		Lang:         e.Lang,
		City:         e.City,
		District:     e.District,
		Location:     NewGeoPoint(e.Lon, e.Lat),
		TempC:        e.TempC,
		Sky:          e.Sky,
		Humidity:     e.Humidity,
		Surroundings: pq.StringArray(e.Surroundings),
		Intents:      pq.StringArray(e.Intents),
		Suggestion:   e.Suggestion,
		Reason:       e.Reason,
		ImageURL:     e.ImageURL,
		LocalTime:    e.LocalTime,
		CreatedAt:    e.CreatedAt,
	}
}
