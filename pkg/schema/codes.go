package schema

import "fmt"

// ProcedureCodePools holds the synthetic procedure codes used per service
// category. Built once at package init; treat as read-only.
var ProcedureCodePools = buildProcedureCodePools()

func buildProcedureCodePools() map[string][]string {
	pools := map[string][]string{}

	for i := 201; i < 216; i++ {
		pools["E&M"] = append(pools["E&M"], fmt.Sprintf("CPT-99%03d", i))
	}
	for i := 100; i < 130; i++ {
		pools["Imaging"] = append(pools["Imaging"], fmt.Sprintf("CPT-7%04d", i))
	}
	for _, prefix := range []int{2, 3, 4, 5, 6} {
		for i := 100; i < 110; i++ {
			pools["Surgical"] = append(pools["Surgical"], fmt.Sprintf("CPT-%d%03d", prefix, i))
		}
	}
	for i := 100; i < 120; i++ {
		pools["DME"] = append(pools["DME"], fmt.Sprintf("HCPCS-E%04d", i))
	}
	for i := 100; i < 110; i++ {
		pools["DME"] = append(pools["DME"], fmt.Sprintf("HCPCS-K%04d", i))
	}
	for i := 1000; i < 1050; i++ {
		pools["Pharmacy"] = append(pools["Pharmacy"], fmt.Sprintf("RX-%05d", i))
	}
	for i := 100; i < 120; i++ {
		pools["Other"] = append(pools["Other"], fmt.Sprintf("CPT-8%04d", i))
	}

	return pools
}
