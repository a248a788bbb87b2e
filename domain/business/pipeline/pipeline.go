package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"bikedest/domain/business/assembler"
	"bikedest/domain/business/directory"
	"bikedest/domain/business/geography"
	"bikedest/domain/business/pipeline/config"
	"bikedest/domain/business/temporal"
	"bikedest/domain/business/userhistory"
	"bikedest/domain/entities/features"
	"bikedest/domain/entities/trip"
	"bikedest/stations"
)

var ErrEmptySchema = errors.New("feature schema is empty")

// Pipeline turns raw trip requests into feature vectors. Every component is built once in New and
// only read afterwards, so Transform can be called from many goroutines
type Pipeline struct {
	config    *config.PipelineConfig
	schema    []string
	directory *directory.Directory
	geography *geography.Resolver
	users     *userhistory.Resolver
}

// New creates a pipeline over an already built directory. A nil directory behaves as an empty one
// and a nil encoder assigns code 0 to every favorite destination
func New(cfg *config.PipelineConfig, dir *directory.Directory, encoder userhistory.Encoder) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if dir == nil {
		dir = directory.Empty()
	}

	schema, err := cfg.Schema()
	if err != nil {
		return nil, err
	}
	if len(schema) == 0 {
		return nil, ErrEmptySchema
	}

	p := &Pipeline{
		config:    cfg,
		schema:    schema,
		directory: dir,
		geography: geography.NewResolver(dir, cfg.GeographyConfig()),
		users: userhistory.NewResolver(cfg.Defaults, cfg.FeatureSchemaVariant, dir, encoder).
			WithDestinationRadius(cfg.NearbyRadiusDegrees),
	}

	// names that no component computes are the same for every request
	if _, missing := p.assemble(trip.TripRequest{}); len(missing) > 0 {
		log.Warnf("[pipeline][method: New][status: WARNING] schema names not produced by any component, they will be zero: %v", missing)
	}

	log.Infof("[pipeline][method: New][status: OK] variant %s, %d features, %d stations", cfg.FeatureSchemaVariant, len(schema), dir.Len())
	return p, nil
}

// Load builds the directory and the destination encoder from the paths of the configuration
func Load(cfg *config.PipelineConfig) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	dir := stations.LoadDirectory(cfg.StationsPath, cfg.DirectoryConfig())

	var encoder userhistory.Encoder
	if cfg.FeatureSchemaVariant == features.VariantCategoricalCode {
		encoder = loadEncoder(cfg.DestinationCodesPath, dir)
	}

	return New(cfg, dir, encoder)
}

// loadEncoder reads the code table the classifier was trained with. Without one the classes are
// fitted on the directory names
func loadEncoder(path string, dir *directory.Directory) *userhistory.LabelEncoder {
	fitted := func() *userhistory.LabelEncoder {
		names := make([]string, 0, dir.Len())
		for _, s := range dir.Stations() {
			names = append(names, s.Name)
		}
		return userhistory.NewLabelEncoder(names)
	}

	if path == "" {
		log.Warn("[pipeline][method: loadEncoder][status: WARNING] no destination code table configured, fitting codes on station names")
		return fitted()
	}

	file, err := os.Open(path)
	if err != nil {
		log.Warnf("[pipeline][method: loadEncoder][status: WARNING] destination code table unavailable, fitting codes on station names: %s", err.Error())
		return fitted()
	}
	defer file.Close()

	encoder, err := userhistory.LoadLabelEncoder(file)
	if err != nil {
		log.Warnf("[pipeline][method: loadEncoder][status: WARNING] %s, fitting codes on station names", err.Error())
		return fitted()
	}
	return encoder
}

// Transform computes the feature vector of one request. It never fails: missing values are filled
// with defaults and names outside the schema are dropped
func (p *Pipeline) Transform(request trip.TripRequest) features.FeatureVector {
	vector, missing := p.assemble(request)
	if len(missing) > 0 {
		log.Debugf("[pipeline][method: Transform] %d schema names filled with zero", len(missing))
	}
	return vector
}

func (p *Pipeline) assemble(request trip.TripRequest) (features.FeatureVector, []string) {
	return assembler.Assemble(
		temporal.Bucket(request.Hour, request.Weekday),
		p.geography.Resolve(request.OriginLat, request.OriginLon),
		p.users.Resolve(request.History),
		assembler.NewCoreFields(request),
		p.schema,
	)
}

// TransformBatch transforms every request concurrently. The i-th vector belongs to the i-th request
func (p *Pipeline) TransformBatch(ctx context.Context, requests []trip.TripRequest) ([]features.FeatureVector, error) {
	vectors := make([]features.FeatureVector, len(requests))

	group, groupCtx := errgroup.WithContext(ctx)
	if p.config.BatchConcurrency > 0 {
		group.SetLimit(p.config.BatchConcurrency)
	}

	for idx := range requests {
		idx := idx
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			vectors[idx] = p.Transform(requests[idx])
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("error transforming batch of %d requests: %w", len(requests), err)
	}
	return vectors, nil
}

// Schema returns a copy of the column list of the vectors
func (p *Pipeline) Schema() []string {
	schema := make([]string, len(p.schema))
	copy(schema, p.schema)
	return schema
}

func (p *Pipeline) Variant() features.Variant {
	return p.config.FeatureSchemaVariant
}

func (p *Pipeline) Directory() *directory.Directory {
	return p.directory
}

// Geography exposes the resolver used for origin features
func (p *Pipeline) Geography() *geography.Resolver {
	return p.geography
}

func (p *Pipeline) NearbyRadius() float64 {
	return p.config.NearbyRadiusDegrees
}
