package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/italygeo/explorer/internal/core/domain"
)

const landmarkColumns = `id, name, COALESCE(description, ''), landmark_type,
       ST_AsGeoJSON(geometry), COALESCE(properties, '{}'), created_at, updated_at`

// LandmarkRepo implements ports.LandmarkRepository with pgx and PostGIS.
type LandmarkRepo struct {
	db *DB
}

// NewLandmarkRepo creates a new LandmarkRepo.
func NewLandmarkRepo(db *DB) *LandmarkRepo {
	return &LandmarkRepo{db: db}
}

// List returns one page of matches ordered by created_at DESC, id DESC.
func (r *LandmarkRepo) List(ctx context.Context, f domain.LandmarkFilter) ([]domain.Landmark, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		args = append(args, f.Type)
		where = append(where, fmt.Sprintf("landmark_type = $%d", len(args)))
	}
	if f.Bounds != nil {
		args = append(args, f.Bounds.MinLon, f.Bounds.MinLat, f.Bounds.MaxLon, f.Bounds.MaxLat)
		n := len(args)
		where = append(where, fmt.Sprintf(
			"ST_Intersects(geometry, ST_MakeEnvelope($%d, $%d, $%d, $%d, 4326))", n-3, n-2, n-1, n))
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM geospatial_data "+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count landmarks: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM geospatial_data %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, landmarkColumns, clause, len(args)-1, len(args))

	landmarks, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return landmarks, total, nil
}

// GetByID returns a landmark or domain.ErrNotFound.
func (r *LandmarkRepo) GetByID(ctx context.Context, id int64) (*domain.Landmark, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+landmarkColumns+` FROM geospatial_data WHERE id = $1`, id)
	return scanOne(row)
}

// Create inserts a landmark and returns the stored row.
func (r *LandmarkRepo) Create(ctx context.Context, in domain.LandmarkInput) (*domain.Landmark, error) {
	geom, err := encodeGeometry(in.Geometry)
	if err != nil {
		return nil, err
	}
	row := r.db.Pool.QueryRow(ctx, `
		INSERT INTO geospatial_data (name, description, landmark_type, geometry, properties)
		VALUES ($1, $2, $3, ST_SetSRID(ST_GeomFromGeoJSON($4), 4326), $5)
		RETURNING `+landmarkColumns,
		in.Name, in.Description, in.Type, geom, props(in.Properties))
	return scanOne(row)
}

// Update replaces the editable fields of a landmark.
func (r *LandmarkRepo) Update(ctx context.Context, id int64, in domain.LandmarkInput) (*domain.Landmark, error) {
	geom, err := encodeGeometry(in.Geometry)
	if err != nil {
		return nil, err
	}
	row := r.db.Pool.QueryRow(ctx, `
		UPDATE geospatial_data
		SET name = $2, description = $3, landmark_type = $4,
		    geometry = ST_SetSRID(ST_GeomFromGeoJSON($5), 4326),
		    properties = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+landmarkColumns,
		id, in.Name, in.Description, in.Type, geom, props(in.Properties))
	return scanOne(row)
}

// Delete removes a landmark or returns domain.ErrNotFound.
func (r *LandmarkRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM geospatial_data WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Within returns landmarks whose centroid lies within radiusKm of the point,
// measured on the spheroid, closest first.
func (r *LandmarkRepo) Within(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Landmark, error) {
	return r.query(ctx, `
		SELECT `+landmarkColumns+`
		FROM geospatial_data
		WHERE ST_DWithin(ST_Centroid(geometry)::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY ST_Distance(ST_Centroid(geometry)::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography)
		LIMIT $4
	`, lon, lat, radiusKm*1000, limit)
}

// All returns every landmark ordered by created_at DESC, id DESC.
func (r *LandmarkRepo) All(ctx context.Context) ([]domain.Landmark, error) {
	return r.query(ctx, `SELECT `+landmarkColumns+` FROM geospatial_data ORDER BY created_at DESC, id DESC`)
}

// Count returns the number of stored landmarks.
func (r *LandmarkRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM geospatial_data`).Scan(&n)
	return n, err
}

// InsertBatch stores many landmarks in one round trip and returns their IDs.
func (r *LandmarkRepo) InsertBatch(ctx context.Context, inputs []domain.LandmarkInput) ([]int64, error) {
	batch := &pgx.Batch{}
	for _, in := range inputs {
		geom, err := encodeGeometry(in.Geometry)
		if err != nil {
			return nil, err
		}
		batch.Queue(`
			INSERT INTO geospatial_data (name, description, landmark_type, geometry, properties)
			VALUES ($1, $2, $3, ST_SetSRID(ST_GeomFromGeoJSON($4), 4326), $5)
			RETURNING id
		`, in.Name, in.Description, in.Type, geom, props(in.Properties))
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	ids := make([]int64, 0, len(inputs))
	for range inputs {
		var id int64
		if err := br.QueryRow().Scan(&id); err != nil {
			return ids, fmt.Errorf("batch insert: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *LandmarkRepo) query(ctx context.Context, sql string, args ...any) ([]domain.Landmark, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	landmarks := []domain.Landmark{}
	for rows.Next() {
		l, err := scanLandmark(rows)
		if err != nil {
			return nil, err
		}
		landmarks = append(landmarks, *l)
	}
	return landmarks, rows.Err()
}

func scanOne(row pgx.Row) (*domain.Landmark, error) {
	l, err := scanLandmark(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return l, err
}

func scanLandmark(row pgx.Row) (*domain.Landmark, error) {
	var (
		l    domain.Landmark
		geom []byte
	)
	if err := row.Scan(
		&l.ID, &l.Name, &l.Description, &l.Type,
		&geom, &l.Properties, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	g, err := geojson.UnmarshalGeometry(geom)
	if err != nil {
		return nil, fmt.Errorf("decode geometry of landmark %d: %w", l.ID, err)
	}
	l.Geometry = g.Geometry()
	return &l, nil
}

func encodeGeometry(g orb.Geometry) (string, error) {
	data, err := geojson.NewGeometry(g).MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode geometry: %w", err)
	}
	return string(data), nil
}

func props(p map[string]any) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return p
}
