// Package simclient is the fluent config-builder and thin HTTP client for
// cmd/mcellgo-server, a generalization of achemdb's pkg/client.SchemaBuilder/
// ReactionBuilder fluent API from condition/effect schemas to
// kernel.SimulationConfig's geometry/species/reaction shape.
package simclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nrazek/mcellgo/internal/kernel"
)

// ConfigBuilder provides a fluent API for assembling a
// kernel.SimulationConfig without hand-writing its nested JSON shape.
type ConfigBuilder struct {
	cfg kernel.SimulationConfig
}

// NewConfig creates a builder with spec.md §6's required scalar fields; a
// zero PartitionEdgeLength/BaseDt/etc. fails ValidatePartitionConfig at
// Build-and-send time rather than here, matching achemdb's "validate on
// apply, not on build" builder style.
func NewConfig() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (cb *ConfigBuilder) PartitionEdgeLength(v float64) *ConfigBuilder {
	cb.cfg.PartitionEdgeLength = v
	return cb
}

func (cb *ConfigBuilder) NumSubpartitionsPerPartition(v int) *ConfigBuilder {
	cb.cfg.NumSubpartitionsPerPartition = v
	return cb
}

func (cb *ConfigBuilder) RxRadius3D(v float64) *ConfigBuilder {
	cb.cfg.RxRadius3D = v
	return cb
}

func (cb *ConfigBuilder) BaseDt(v float64) *ConfigBuilder {
	cb.cfg.BaseDt = v
	return cb
}

func (cb *ConfigBuilder) Seed(v uint64) *ConfigBuilder {
	cb.cfg.Seed = v
	return cb
}

func (cb *ConfigBuilder) UseExpandedList(v bool) *ConfigBuilder {
	cb.cfg.UseExpandedList = v
	return cb
}

// Species adds one species definition.
func (cb *ConfigBuilder) Species(sp kernel.SpeciesConfig) *ConfigBuilder {
	cb.cfg.Species = append(cb.cfg.Species, sp)
	return cb
}

// Object adds a geometry object built by an ObjectBuilder.
func (cb *ConfigBuilder) Object(ob *ObjectBuilder) *ConfigBuilder {
	cb.cfg.Geometry.Objects = append(cb.cfg.Geometry.Objects, ob.Build())
	return cb
}

// Reaction adds a reaction built by a ReactionBuilder.
func (cb *ConfigBuilder) Reaction(rb *ReactionBuilder) *ConfigBuilder {
	cb.cfg.Reactions = append(cb.cfg.Reactions, rb.Build())
	return cb
}

// Build returns the assembled SimulationConfig.
func (cb *ConfigBuilder) Build() kernel.SimulationConfig {
	return cb.cfg
}

// ObjectBuilder assembles one GeometryConfig object: a vertex list, a
// triangle list referencing those vertices by index, and optional regions
// grouping walls by index.
type ObjectBuilder struct {
	obj kernel.ObjectConfig
}

// NewObject creates an object builder named name.
func NewObject(name string) *ObjectBuilder {
	return &ObjectBuilder{obj: kernel.ObjectConfig{Name: name}}
}

// Vertex appends one vertex and returns its index, for use in Wall calls.
func (ob *ObjectBuilder) Vertex(x, y, z float64) int {
	ob.obj.Vertices = append(ob.obj.Vertices, kernel.VertexConfig{X: x, Y: y, Z: z})
	return len(ob.obj.Vertices) - 1
}

// Wall appends one triangle referencing three vertex indices returned by
// Vertex.
func (ob *ObjectBuilder) Wall(v0, v1, v2 int) *ObjectBuilder {
	ob.obj.Walls = append(ob.obj.Walls, kernel.WallConfig{V0: v0, V1: v1, V2: v2})
	return ob
}

// Region groups wallIndices (into this object's Walls slice) under name,
// optionally reactive with the given surface class species name.
func (ob *ObjectBuilder) Region(name string, wallIndices []int, reactive bool, surfaceClass string) *ObjectBuilder {
	ob.obj.Regions = append(ob.obj.Regions, kernel.RegionConfig{
		Name:         name,
		WallIndices:  wallIndices,
		Reactive:     reactive,
		SurfaceClass: surfaceClass,
	})
	return ob
}

// Build returns the assembled ObjectConfig.
func (ob *ObjectBuilder) Build() kernel.ObjectConfig {
	return ob.obj
}

// ReactionBuilder assembles one ReactionConfig: one or two reactant species
// names plus one or more pathways.
type ReactionBuilder struct {
	reactants []string
	pathways  []kernel.PathwayConfig
}

// NewReaction creates a reaction builder for the given reactant species
// names (one for a unimolecular reaction, two for bimolecular).
func NewReaction(reactants ...string) *ReactionBuilder {
	return &ReactionBuilder{reactants: reactants}
}

// Pathway adds one outcome at the given probability, producing products,
// of the given RxnType name ("standard", "transparent", "reflect",
// "absorb_region_border"; "" defaults to "standard").
func (rb *ReactionBuilder) Pathway(probability float64, rxnType string, products ...kernel.ProductConfig) *ReactionBuilder {
	rb.pathways = append(rb.pathways, kernel.PathwayConfig{
		Probability: probability,
		Products:    products,
		Type:        rxnType,
	})
	return rb
}

// Product is a convenience constructor for one ProductConfig.
func Product(species string, orientation float64) kernel.ProductConfig {
	return kernel.ProductConfig{Species: species, Orientation: orientation}
}

// Build returns the assembled ReactionConfig.
func (rb *ReactionBuilder) Build() kernel.ReactionConfig {
	return kernel.ReactionConfig{Reactants: rb.reactants, Pathways: rb.pathways}
}

// Client is a thin HTTP wrapper around cmd/mcellgo-server's REST API,
// the generalization of achemdb pkg/client's free-standing ApplySchema
// function into a reusable client carrying the server's base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client targeting baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *Client) url(parts ...string) (string, error) {
	return url.JoinPath(c.baseURL, parts...)
}

func (c *Client) do(ctx context.Context, method, u string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// CreatePartition POSTs cfg to /partitions and returns the new partition id.
func (c *Client) CreatePartition(ctx context.Context, cfg kernel.SimulationConfig) (string, error) {
	u, err := c.url("partitions")
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, u, cfg, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Step runs one iteration of partition id.
func (c *Client) Step(ctx context.Context, id string) error {
	u, err := c.url("partitions", id, "step")
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	return c.do(ctx, http.MethodPost, u, nil, nil)
}

// Start begins auto-running partition id on the given tick interval.
func (c *Client) Start(ctx context.Context, id string, interval time.Duration) error {
	u, err := c.url("partitions", id, "start")
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	u += fmt.Sprintf("?interval_ms=%d", interval.Milliseconds())
	return c.do(ctx, http.MethodPost, u, nil, nil)
}

// Stop halts auto-running of partition id.
func (c *Client) Stop(ctx context.Context, id string) error {
	u, err := c.url("partitions", id, "stop")
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	return c.do(ctx, http.MethodPost, u, nil, nil)
}

// Snapshot fetches the current state of partition id.
func (c *Client) Snapshot(ctx context.Context, id string) (kernel.Snapshot, error) {
	u, err := c.url("partitions", id, "snapshot")
	if err != nil {
		return kernel.Snapshot{}, fmt.Errorf("build url: %w", err)
	}
	var snap kernel.Snapshot
	if err := c.do(ctx, http.MethodGet, u, nil, &snap); err != nil {
		return kernel.Snapshot{}, err
	}
	return snap, nil
}

// Delete removes partition id from the server.
func (c *Client) Delete(ctx context.Context, id string) error {
	u, err := c.url("partitions", id)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	return c.do(ctx, http.MethodDelete, u, nil, nil)
}

// ListPartitions returns every partition id known to the server.
func (c *Client) ListPartitions(ctx context.Context) ([]string, error) {
	u, err := c.url("partitions")
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	var resp struct {
		Partitions []string `json:"partitions"`
	}
	if err := c.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Partitions, nil
}
