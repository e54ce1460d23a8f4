// Package converter переводит задачи и решения между внешними форматами
// (JSON API, b-flow текст, матрица назначений) и решателем simplex.
package converter

import (
	"fmt"
	"math"
	"math/bits"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"

	"netsimplex/pkg/apperror"
	"netsimplex/services/solver-svc/internal/simplex"
)

// Edge ребро задачи. Поток по ребру должен лежать в [Lower, Upper].
type Edge struct {
	From  int   `json:"from"`
	To    int   `json:"to"`
	Lower int64 `json:"lower"`
	Upper int64 `json:"upper"`
	Cost  int64 `json:"cost"`
}

// Problem задача min-cost b-flow. Положительный баланс - предложение,
// отрицательный - спрос.
type Problem struct {
	Vertices int     `json:"vertices,omitempty"`
	Balances []int64 `json:"balances"`
	Edges    []Edge  `json:"edges"`
}

// Limits ограничения на размер задачи. Нулевое значение - без ограничения.
type Limits struct {
	MaxVertices int
	MaxEdges    int

	// WideCost допускает задачи, стоимость потока которых может не
	// поместиться в int64. Такая стоимость возвращается в Result.ExactCost.
	WideCost bool
}

// maxCostSum предел суммы |cost| по всем рёбрам. Решатель строит из неё
// стоимость искусственных рёбер и должен держать восьмикратный запас.
const maxCostSum = math.MaxInt64/8 - 1

// VertexCount возвращает число вершин: максимум из явного Vertices,
// длины Balances и наибольшего индекса в рёбрах плюс один.
func (p *Problem) VertexCount() int {
	n := max(p.Vertices, len(p.Balances))
	for _, e := range p.Edges {
		n = max(n, e.From+1, e.To+1)
	}
	return n
}

// Validate проверяет структуру задачи до построения решателя
func (p *Problem) Validate(limits Limits) error {
	if p == nil {
		return apperror.ErrNilProblem
	}

	if p.Vertices < 0 {
		return apperror.NewWithField(apperror.CodeInvalidVertex, "vertex count is negative", "vertices")
	}

	if len(p.Balances) == 0 && len(p.Edges) == 0 && p.Vertices == 0 {
		return apperror.New(apperror.CodeEmptyProblem, "problem has no vertices and no edges")
	}

	if limits.MaxEdges > 0 && len(p.Edges) > limits.MaxEdges {
		return apperror.Newf(apperror.CodeProblemTooLarge,
			"%d edges exceed limit %d", len(p.Edges), limits.MaxEdges).
			WithDetails("edges", len(p.Edges)).
			WithField("edges")
	}

	var costSum, flowCost uint64
	for i, e := range p.Edges {
		field := fmt.Sprintf("edges[%d]", i)
		if e.From < 0 || e.To < 0 {
			return apperror.NewWithField(apperror.CodeInvalidVertex,
				fmt.Sprintf("edge %d->%d has a negative endpoint", e.From, e.To), field)
		}
		if e.Lower > e.Upper {
			return apperror.NewWithField(apperror.CodeInvalidBounds,
				fmt.Sprintf("lower bound %d above upper bound %d", e.Lower, e.Upper), field)
		}

		c := abs(e.Cost)
		if c > maxCostSum-costSum {
			return apperror.NewWithField(apperror.CodeValueOutOfRange,
				fmt.Sprintf("sum of absolute costs exceeds %d", uint64(maxCostSum)), field)
		}
		costSum += c

		if limits.WideCost {
			continue
		}
		hi, lo := bits.Mul64(max(abs(e.Lower), abs(e.Upper)), c)
		if hi != 0 || lo > math.MaxInt64-flowCost {
			return apperror.NewWithField(apperror.CodeValueOutOfRange,
				"flow cost may exceed int64", field)
		}
		flowCost += lo
	}

	if n := p.VertexCount(); limits.MaxVertices > 0 && n > limits.MaxVertices {
		return apperror.Newf(apperror.CodeProblemTooLarge,
			"%d vertices exceed limit %d", n, limits.MaxVertices).
			WithDetails("vertices", n).
			WithField("vertices")
	}

	return nil
}

// abs модуль без переполнения на math.MinInt64
func abs(x int64) uint64 {
	if x < 0 {
		return uint64(-(x + 1)) + 1
	}
	return uint64(x)
}

// Build создаёт решатель с задачей. Возвращает id рёбер в порядке p.Edges.
// Задача должна пройти Validate.
func (p *Problem) Build(opts *simplex.Options) (*simplex.Solver[int64, int64], []simplex.EdgeID) {
	s := simplex.NewWithOptions[int64, int64](opts)

	if n := p.VertexCount(); n > 0 {
		s.AddSupply(n-1, 0)
	}
	for v, b := range p.Balances {
		s.AddSupply(v, b)
	}

	ids := make([]simplex.EdgeID, len(p.Edges))
	for i, e := range p.Edges {
		ids[i] = s.AddEdge(e.From, e.To, e.Lower, e.Upper, e.Cost)
	}
	return s, ids
}

// Canonical возвращает детерминированное бинарное представление задачи.
// Хвостовые нулевые балансы не влияют на результат, поэтому отбрасываются.
func (p *Problem) Canonical() []byte {
	balances := p.Balances
	for len(balances) > 0 && balances[len(balances)-1] == 0 {
		balances = balances[:len(balances)-1]
	}

	b := make([]byte, 0, 8+4*len(balances)+16*len(p.Edges))
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.VertexCount()))

	for _, v := range balances {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(v))
	}

	for _, e := range p.Edges {
		var edge []byte
		edge = protowire.AppendVarint(edge, uint64(e.From))
		edge = protowire.AppendVarint(edge, uint64(e.To))
		edge = protowire.AppendVarint(edge, protowire.EncodeZigZag(e.Lower))
		edge = protowire.AppendVarint(edge, protowire.EncodeZigZag(e.Upper))
		edge = protowire.AppendVarint(edge, protowire.EncodeZigZag(e.Cost))

		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, edge)
	}

	return b
}

// Clone возвращает глубокую копию задачи
func (p *Problem) Clone() *Problem {
	return &Problem{
		Vertices: p.Vertices,
		Balances: slices.Clone(p.Balances),
		Edges:    slices.Clone(p.Edges),
	}
}
