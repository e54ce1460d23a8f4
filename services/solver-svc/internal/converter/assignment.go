package converter

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"netsimplex/pkg/apperror"
)

// AssignmentProblem строит задачу назначения n работников на n работ.
// Работник i - вершина i с предложением 1, работа j - вершина n+j со спросом 1.
// Ребро i -> n+j имеет индекс i*n+j.
func AssignmentProblem(costs [][]int64) (*Problem, error) {
	n := len(costs)
	if n == 0 {
		return nil, apperror.New(apperror.CodeEmptyProblem, "cost matrix is empty")
	}

	p := &Problem{
		Vertices: 2 * n,
		Balances: make([]int64, 2*n),
		Edges:    make([]Edge, 0, n*n),
	}
	for i, row := range costs {
		if len(row) != n {
			return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
				fmt.Sprintf("row has %d entries, want %d", len(row), n), fmt.Sprintf("costs[%d]", i))
		}
		p.Balances[i] = 1
		p.Balances[n+i] = -1
		for j, c := range row {
			p.Edges = append(p.Edges, Edge{From: i, To: n + j, Lower: 0, Upper: 1, Cost: c})
		}
	}

	return p, nil
}

// DecodeAssignment возвращает для каждого работника номер назначенной работы
func DecodeAssignment(n int, flows []int64) ([]int, error) {
	if len(flows) != n*n {
		return nil, apperror.Newf(apperror.CodeInvalidArgument, "got %d flows, want %d", len(flows), n*n)
	}

	jobs := make([]int, n)
	for i := range jobs {
		jobs[i] = -1
		for j := 0; j < n; j++ {
			if flows[i*n+j] == 1 {
				jobs[i] = j
				break
			}
		}
		if jobs[i] < 0 {
			return nil, apperror.Newf(apperror.CodeConservationViolation, "worker %d has no job", i)
		}
	}
	return jobs, nil
}

// ParseAssignment читает n и матрицу n×n стоимостей. Задача назначения
// имеет 2n вершин и n² рёбер, они сверяются с limits до чтения матрицы.
func ParseAssignment(r io.Reader, limits Limits) ([][]int64, error) {
	tr := newTokenReader(r)

	n, err := tr.size("n")
	if err != nil {
		return nil, err
	}
	if err := checkCount(2*n, limits.MaxVertices, "vertices"); err != nil {
		return nil, err
	}
	if limits.MaxEdges > 0 && n > 0 && n > limits.MaxEdges/n {
		return nil, checkCount(n*n, limits.MaxEdges, "edges")
	}

	costs := make([][]int64, 0, min(n, preallocLimit))
	for i := 0; i < n; i++ {
		row := make([]int64, 0, min(n, preallocLimit))
		for j := 0; j < n; j++ {
			c, err := tr.int64(fmt.Sprintf("costs[%d][%d]", i, j))
			if err != nil {
				return nil, err
			}
			row = append(row, c)
		}
		costs = append(costs, row)
	}
	return costs, nil
}

// WriteAssignment пишет стоимость и строку с работами через пробел
func WriteAssignment(w io.Writer, cost int64, jobs []int) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strconv.FormatInt(cost, 10))
	bw.WriteByte('\n')
	for i, j := range jobs {
		if i > 0 {
			bw.WriteByte(' ')
		}
		bw.WriteString(strconv.Itoa(j))
	}
	bw.WriteByte('\n')
	return bw.Flush()
}
