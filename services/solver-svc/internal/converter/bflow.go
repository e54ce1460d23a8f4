package converter

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"netsimplex/pkg/apperror"
)

// tokenReader читает целые числа, разделённые пробельными символами
type tokenReader struct {
	sc    *bufio.Scanner
	count int
}

func newTokenReader(r io.Reader) *tokenReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	return &tokenReader{sc: sc}
}

func (t *tokenReader) int64(field string) (int64, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return 0, apperror.Wrap(err, apperror.CodeParseError, "read input")
		}
		return 0, apperror.NewWithField(apperror.CodeParseError, "unexpected end of input", field)
	}
	t.count++

	v, err := strconv.ParseInt(t.sc.Text(), 10, 64)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.CodeParseError,
			fmt.Sprintf("token %d: %q is not an integer", t.count, t.sc.Text())).WithField(field)
	}
	return v, nil
}

func (t *tokenReader) size(field string) (int, error) {
	v, err := t.int64(field)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 1<<31 {
		return 0, apperror.NewWithField(apperror.CodeParseError,
			fmt.Sprintf("count %d out of range", v), field)
	}
	return int(v), nil
}

// preallocLimit предел начальной ёмкости срезов при разборе. Заголовок
// непроверенный, так что дальше срезы растут по мере чтения данных.
const preallocLimit = 4096

// checkCount сверяет объявленный в заголовке размер с лимитом
func checkCount(count, limit int, field string) error {
	if limit > 0 && count > limit {
		return apperror.Newf(apperror.CodeProblemTooLarge,
			"%d %s exceed limit %d", count, field, limit).
			WithDetails(field, count).
			WithField(field)
	}
	return nil
}

// ParseBFlow читает задачу в формате b-flow:
//
//	n m
//	b_0 ... b_{n-1}
//	s t lower upper cost   (m строк)
//
// Размеры из заголовка проверяются по limits до чтения данных.
func ParseBFlow(r io.Reader, limits Limits) (*Problem, error) {
	tr := newTokenReader(r)

	n, err := tr.size("n")
	if err != nil {
		return nil, err
	}
	m, err := tr.size("m")
	if err != nil {
		return nil, err
	}
	if err := checkCount(n, limits.MaxVertices, "vertices"); err != nil {
		return nil, err
	}
	if err := checkCount(m, limits.MaxEdges, "edges"); err != nil {
		return nil, err
	}

	p := &Problem{
		Vertices: n,
		Balances: make([]int64, 0, min(n, preallocLimit)),
		Edges:    make([]Edge, 0, min(m, preallocLimit)),
	}

	for v := 0; v < n; v++ {
		b, err := tr.int64(fmt.Sprintf("balances[%d]", v))
		if err != nil {
			return nil, err
		}
		p.Balances = append(p.Balances, b)
	}

	var vals [5]int64
	for i := 0; i < m; i++ {
		field := fmt.Sprintf("edges[%d]", i)
		for k := range vals {
			if vals[k], err = tr.int64(field); err != nil {
				return nil, err
			}
		}
		if vals[0] < 0 || vals[0] >= int64(n) || vals[1] < 0 || vals[1] >= int64(n) {
			return nil, apperror.NewWithField(apperror.CodeInvalidVertex,
				fmt.Sprintf("edge %d->%d outside [0, %d)", vals[0], vals[1], n), field)
		}
		p.Edges = append(p.Edges, Edge{
			From:  int(vals[0]),
			To:    int(vals[1]),
			Lower: vals[2],
			Upper: vals[3],
			Cost:  vals[4],
		})
	}

	return p, nil
}

// WriteBFlow пишет задачу в формате b-flow
func WriteBFlow(w io.Writer, p *Problem) error {
	bw := bufio.NewWriter(w)
	n := p.VertexCount()

	fmt.Fprintf(bw, "%d %d\n", n, len(p.Edges))
	for v := 0; v < n; v++ {
		if v > 0 {
			bw.WriteByte(' ')
		}
		var b int64
		if v < len(p.Balances) {
			b = p.Balances[v]
		}
		bw.WriteString(strconv.FormatInt(b, 10))
	}
	bw.WriteByte('\n')

	for _, e := range p.Edges {
		fmt.Fprintf(bw, "%d %d %d %d %d\n", e.From, e.To, e.Lower, e.Upper, e.Cost)
	}

	return bw.Flush()
}

// WriteBFlowResult пишет ответ: стоимость, n потенциалов, m потоков по
// одному на строку. Для недопустимой задачи - единственная строка "infeasible".
func WriteBFlowResult(w io.Writer, res *Result) error {
	bw := bufio.NewWriter(w)

	switch res.Status {
	case StatusOptimal:
		bw.WriteString(res.Cost().String())
		bw.WriteByte('\n')
		for _, p := range res.Potentials {
			bw.WriteString(strconv.FormatInt(p, 10))
			bw.WriteByte('\n')
		}
		for _, f := range res.Flows {
			bw.WriteString(strconv.FormatInt(f, 10))
			bw.WriteByte('\n')
		}
	case StatusInfeasible:
		bw.WriteString("infeasible\n")
	default:
		return apperror.Newf(apperror.CodePivotLimit, "no solution to write: status %s", res.Status)
	}

	return bw.Flush()
}
