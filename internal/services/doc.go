// Package services implements the application layer of qpcrscore.
// It sits between the transports (CLI and HTTP) and the scoring core, so
// both front ends share one load, score and export path.
//
// # Available Services
//
//	- ScoringService: loads amplification tables, scores them and renders
//	  the result CSV
//	- HealthService: liveness, readiness and version information
//
// # Error Handling
//
// Services return *errors.AppError values from the loaders unchanged, so
// transports can map them to exit codes or problem documents:
//
//	result, err := svc.ScoreFile(ctx, "run1.xlsx")
//	if err != nil {
//	    return err // INPUT_SHAPE, NOT_FOUND, ...
//	}
//
// # Testing
//
// Readiness dependencies are small interfaces mocked with testify/mock:
//
//	checker := new(MockChecker)
//	checker.On("CheckHealth", mock.Anything).Return(nil)
//	hs.RegisterCheck("scoring", checker)
package services
