package service

import (
	"math/rand"
)

// OperatorSelector 在固定算子集合上做均匀随机选择
type OperatorSelector struct {
	ops []Operator
}

func NewOperatorSelector(set *PerturbationSet) *OperatorSelector {
	return &OperatorSelector{
		ops: set.Operators(),
	}
}

// Pick 等概率选出一个算子；批内可重复，不加权、不排除
func (s *OperatorSelector) Pick(rng *rand.Rand) Operator {
	return s.ops[rng.Intn(len(s.ops))]
}

// Count 算子总数
func (s *OperatorSelector) Count() int {
	return len(s.ops)
}
