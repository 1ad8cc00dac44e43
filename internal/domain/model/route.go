package model

// Point is a planar coordinate pair. Lat/Lon are treated as plain Euclidean
// axes; no geodesic correction is applied.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TimeWindow is an opening-hours hint. It is accepted and echoed back but not
// enforced by the route engines.
type TimeWindow struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Stop is a location to visit.
type Stop struct {
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Hours       *TimeWindow `json:"hours,omitempty"`
	Duration    int         `json:"duration"` // minutes
	Coordinates Point       `json:"coordinates"`
}

// RouteInstance is a closed-tour problem. Home is the fixed depot at index 0;
// Stops[i] has index i+1.
type RouteInstance struct {
	Home  Stop   `json:"home"`
	Stops []Stop `json:"stops"`
}

// Points returns the coordinates indexed as in the tour: home first.
func (r RouteInstance) Points() []Point {
	pts := make([]Point, 0, len(r.Stops)+1)
	pts = append(pts, r.Home.Coordinates)
	for _, s := range r.Stops {
		pts = append(pts, s.Coordinates)
	}
	return pts
}

// At returns the stop with tour index idx.
func (r RouteInstance) At(idx int) Stop {
	if idx == 0 {
		return r.Home
	}
	return r.Stops[idx-1]
}

// RouteStop is a stop tagged with its tour index.
type RouteStop struct {
	Stop
	Index int `json:"index"`
}

// RouteResult is the outcome of one route solve.
//
// RouteOrder starts with 0, lists every stop index exactly once and ends with
// the closing 0; TotalDistance includes the return leg to home.
type RouteResult struct {
	Route         []RouteStop `json:"route"`
	TotalDistance float64     `json:"total_distance"`
	RouteOrder    []int       `json:"route_order"`
	Coordinates   []Point     `json:"coordinates"`
	Algorithm     string      `json:"algorithm"`
}

// Kind implements compare.Metric.
func (r RouteResult) Kind() string { return r.Algorithm }

// Objective implements compare.Metric; route results are minimized.
func (r RouteResult) Objective() float64 { return r.TotalDistance }

// NewRouteResult expands an open tour (order[0] == 0, no closing index) into a
// RouteResult with the return leg appended.
func NewRouteResult(inst RouteInstance, order []int, total float64, algorithm string) RouteResult {
	closed := make([]int, 0, len(order)+1)
	closed = append(closed, order...)
	if len(order) > 1 {
		closed = append(closed, 0)
	}
	stops := make([]RouteStop, len(closed))
	for i, idx := range closed {
		stops[i] = RouteStop{Stop: inst.At(idx), Index: idx}
	}
	return RouteResult{
		Route:         stops,
		TotalDistance: total,
		RouteOrder:    closed,
		Coordinates:   inst.Points(),
		Algorithm:     algorithm,
	}
}
