// Package descriptors runs the shape descriptor pipeline: particles are
// rasterized, their contours traced and measured, and one row per contour is
// written to the configured sinks together with mask and contour images.
package descriptors

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/stat"

	"pmpshapes/internal/models"
	"pmpshapes/pkg/geometry"
	"pmpshapes/pkg/pmp"
	"pmpshapes/pkg/reconstruction"
	"pmpshapes/pkg/store"
	"pmpshapes/pkg/visualization"
)

// ThresholdLevel is the binarization threshold applied to masks
const ThresholdLevel = 1

// Params holds the pipeline parameters.
type Params struct {
	// InputPath is the sIMPLE particle file
	InputPath string

	// NameEncoding selects the charmap for particle names
	NameEncoding string

	// OutputDir receives particle_<n>.png and contour_<k>.png
	OutputDir string

	// CSVPath is the descriptor table, recreated on every run
	CSVPath string

	// SQLitePath optionally stores descriptors in a database
	SQLitePath string

	// PlotDir optionally receives the scatter matrix and correlation plots
	PlotDir string

	// NumCores is the number of particles analysed concurrently
	NumCores int

	// MaxMaskPixels bounds reconstructed masks (0 selects the default)
	MaxMaskPixels int

	// IntegerAspectRatio truncates width/height
	IntegerAspectRatio bool

	SaveParticleImages bool
	SaveContourImages  bool
	Verbose            bool
}

// Summary describes a finished run
type Summary struct {
	// DeclaredParticles is the count from the file header
	DeclaredParticles int

	// Particles is the number of particles described
	Particles int

	// Skipped lists particles that could not be rasterized
	Skipped []SkippedParticle

	// Contours is the number of rows written
	Contours int

	// EllipseUnavailable counts contours reported with the elongation sentinel
	EllipseUnavailable int

	// MeanArea and StdArea summarise the moment areas of all contours
	MeanArea float64
	StdArea  float64

	// NextContour is the counter value after the run
	NextContour int
}

// SkippedParticle records a particle left out of the descriptor table
type SkippedParticle struct {
	Index int
	Err   error
}

// Pipeline handles one descriptor run over a particle file.
type Pipeline struct {
	params  *Params
	recon   *reconstruction.Reconstructor
	budget  *semaphore.Weighted
	counter *ContourCounter
	sink    store.Sink

	rows    []models.DescriptorRow
	summary Summary
}

// particleResult is the output of the analysis stage for one particle
type particleResult struct {
	mask     *models.Mask
	contours []geometry.Contour
	descs    []Descriptor
	err      error
}

// NewPipeline creates a pipeline. The counter supplies global contour numbers;
// nil starts a fresh counter at 0.
//
// Particles in flight share a budget of MaxMaskPixels mask cells, so the
// masks and contour grids alive at any moment cover at most one maximum-size
// particle regardless of NumCores.
func NewPipeline(params *Params, counter *ContourCounter) *Pipeline {
	if counter == nil {
		counter = NewContourCounter(0)
	}
	recon := reconstruction.NewReconstructor(params.MaxMaskPixels)
	return &Pipeline{
		params:  params,
		recon:   recon,
		budget:  semaphore.NewWeighted(recon.MaxPixels()),
		counter: counter,
	}
}

// SetSink replaces the sinks built from Params with s
func (p *Pipeline) SetSink(s store.Sink) {
	p.sink = s
}

// Process runs the complete pipeline
func (p *Pipeline) Process() error {
	// Step 1: Parse the particle file
	fmt.Println("Step 1: Parsing particle file...")
	parser, err := pmp.NewParser(p.params.NameEncoding)
	if err != nil {
		return err
	}
	pf, err := parser.ParseFile(p.params.InputPath)
	if err != nil {
		return fmt.Errorf("failed to parse particles: %w", err)
	}
	fmt.Printf("Number of particles: %d\n", pf.DeclaredCount)
	if pf.TrailingBytes > 0 {
		log.Printf("Warning: %d bytes after the last particle record in %s", pf.TrailingBytes, p.params.InputPath)
	}

	// Step 2: Open the descriptor sinks
	fmt.Println("Step 2: Opening descriptor outputs...")
	if p.sink == nil {
		sink, err := p.openSinks()
		if err != nil {
			return err
		}
		p.sink = sink
	}

	// Step 3: Rasterize and describe every particle
	fmt.Println("Step 3: Describing particles...")
	if err := p.describeParticles(pf); err != nil {
		return errors.Join(err, p.sink.Close())
	}
	if err := p.sink.Close(); err != nil {
		return fmt.Errorf("failed to close descriptor outputs: %w", err)
	}

	p.summarize(pf)

	// Step 4: Plot descriptor relationships
	if p.params.PlotDir != "" {
		fmt.Println("Step 4: Plotting descriptors...")
		p.plot()
	}

	return nil
}

// openSinks creates the CSV sink and, when configured, the SQLite sink
func (p *Pipeline) openSinks() (store.Sink, error) {
	csvSink, err := store.NewCSVSink(p.params.CSVPath)
	if err != nil {
		return nil, err
	}
	if p.params.SQLitePath == "" {
		return csvSink, nil
	}

	dbSink, err := store.NewSQLiteSink(p.params.SQLitePath, p.params.InputPath)
	if err != nil {
		csvSink.Close()
		return nil, err
	}
	if p.params.Verbose {
		fmt.Printf("Storing descriptors in %s as run %s\n", p.params.SQLitePath, dbSink.RunID)
	}
	return store.MultiSink{csvSink, dbSink}, nil
}

// describeParticles analyses particles on a pool of workers and emits the
// results in particle order, so rows, contour numbers and image names do not
// depend on the number of cores. Budget is acquired in particle order and
// released once a particle is emitted, so the earliest pending particle can
// always proceed.
func (p *Pipeline) describeParticles(pf *models.ParticleFile) error {
	workers := p.params.NumCores
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	particles := pf.Particles
	costs := make([]int64, len(particles))
	results := make([]chan particleResult, len(particles))
	for i := range results {
		results[i] = make(chan particleResult, 1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs := make(chan int)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		for i := range particles {
			costs[i] = p.cost(&particles[i])
			if err := p.budget.Acquire(ctx, costs[i]); err != nil {
				return
			}
			select {
			case jobs <- i:
			case <-ctx.Done():
				p.budget.Release(costs[i])
				return
			}
		}
	}()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] <- p.analyze(&particles[i])
			}
		}()
	}

	var err error
	for i := range particles {
		res := <-results[i]
		err = p.emit(&particles[i], res)
		p.budget.Release(costs[i])
		if err != nil {
			cancel()
			break
		}
	}

	wg.Wait()
	return err
}

// cost is the number of mask cells analysing the particle allocates
func (p *Pipeline) cost(particle *models.Particle) int64 {
	w, h, err := p.recon.Size(particle.X, particle.Y)
	if err != nil {
		return 0
	}
	return w * h
}

// analyze rasterizes one particle and describes each contour of its mask
func (p *Pipeline) analyze(particle *models.Particle) particleResult {
	mask, err := p.recon.ReconstructParticle(particle)
	if err != nil {
		return particleResult{err: err}
	}

	bin := geometry.Threshold(mask.Gray(), ThresholdLevel, reconstruction.Foreground)
	contours := geometry.FindContours(bin)

	descs := make([]Descriptor, len(contours))
	for i, c := range contours {
		descs[i] = Describe(c, p.params.IntegerAspectRatio)
	}

	return particleResult{mask: mask, contours: contours, descs: descs}
}

// emit writes the images and rows of one analysed particle
func (p *Pipeline) emit(particle *models.Particle, res particleResult) error {
	if res.err != nil {
		log.Printf("Warning: skipping particle %d: %v", particle.Index, res.err)
		p.summary.Skipped = append(p.summary.Skipped, SkippedParticle{Index: particle.Index, Err: res.err})
		return nil
	}

	if p.params.Verbose {
		fmt.Printf("Particle %d (%q): %d pixels, %dx%d mask, %d contours\n",
			particle.Index, particle.Name, particle.Len(), res.mask.Width, res.mask.Height, len(res.contours))
	}

	if p.params.SaveParticleImages {
		path := visualization.ParticleImagePath(p.params.OutputDir, particle.Index)
		if err := visualization.SavePNG(res.mask.Gray(), path); err != nil {
			log.Printf("Warning: Failed to save particle %d image: %v", particle.Index, err)
		}
	}

	var annotated *image.Gray
	if p.params.SaveContourImages {
		annotated = outline(res.mask, res.contours)
	}

	for i, d := range res.descs {
		k := p.counter.Next()
		row := d.Row(particle.Index, i, k)

		if d.EllipseErr != nil {
			p.summary.EllipseUnavailable++
			if p.params.Verbose {
				fmt.Printf("  contour %d: elongation unavailable: %v\n", k, d.EllipseErr)
			}
		}

		if err := p.sink.WriteRow(row); err != nil {
			return fmt.Errorf("failed to write descriptors of contour %d: %w", k, err)
		}
		p.rows = append(p.rows, row)

		if annotated != nil {
			// Discs of later contours are not yet drawn when this crop is taken
			if x, y, ok := d.Moments.Centroid(); ok {
				visualization.FillCircle(annotated, x, y, visualization.CentroidRadius, visualization.AnnotationLevel)
			}
			path := visualization.ContourImagePath(p.params.OutputDir, k)
			if err := visualization.SavePNG(visualization.Crop(annotated, d.Rect), path); err != nil {
				log.Printf("Warning: Failed to save contour %d image: %v", k, err)
			}
		}
	}

	p.summary.Particles++
	return nil
}

// outline draws every contour onto a copy of the mask
func outline(mask *models.Mask, contours []geometry.Contour) *image.Gray {
	img := visualization.Clone(mask.Gray())
	for _, c := range contours {
		visualization.DrawPolygon(img, c.Points, visualization.AnnotationLevel)
	}
	return img
}

// summarize fills the run summary from the emitted rows
func (p *Pipeline) summarize(pf *models.ParticleFile) {
	p.summary.DeclaredParticles = int(pf.DeclaredCount)
	p.summary.Contours = len(p.rows)
	p.summary.NextContour = p.counter.Peek()

	if len(p.rows) > 0 {
		areas := make([]float64, len(p.rows))
		for i, r := range p.rows {
			areas[i] = r.AreaFromMoment
		}
		p.summary.MeanArea, p.summary.StdArea = stat.MeanStdDev(areas, nil)
	}
}

// plot renders the descriptor plots; failures are reported but not fatal
func (p *Pipeline) plot() {
	scatter := filepath.Join(p.params.PlotDir, "correlation_plot.png")
	if err := visualization.PlotScatterMatrix(p.rows, scatter); err != nil {
		log.Printf("Warning: Failed to plot scatter matrix: %v", err)
	}
	corr := filepath.Join(p.params.PlotDir, "correlation_matrix.png")
	if err := visualization.PlotCorrelation(p.rows, corr); err != nil {
		log.Printf("Warning: Failed to plot correlation matrix: %v", err)
	}
}

// GetSummary returns the summary of the last run
func (p *Pipeline) GetSummary() Summary {
	return p.summary
}

// Rows returns the descriptor rows emitted by the last run
func (p *Pipeline) Rows() []models.DescriptorRow {
	return p.rows
}
