// Package exporter writes scored wells as the result CSV.
//
// ResultWriter renders one record per well under the fixed header
//
//	Well,Sample,DeltaRn_final,Ruido_baseline,Derivada_max,Nota,Classificacao
//
// optionally prefixed by an Arquivo column naming the source file. Floats are
// written in their shortest round-trip form with a trailing ".0" for integral
// values, and non-numeric features are left as empty cells, so the file reads
// back identically in spreadsheet tools and pandas.
//
// Example usage:
//
//	w := exporter.NewResultWriter(exporter.OptionsFromConfig(cfg.Export), logger)
//	err := w.WriteFile(ctx, "avaliacao_qpcr.csv", result.Results)
package exporter
