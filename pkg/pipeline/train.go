package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"salesforecast/pkg/artifact"
	"salesforecast/pkg/config"
	"salesforecast/pkg/data"
	"salesforecast/pkg/dataprep"
	"salesforecast/pkg/loader"
	"salesforecast/pkg/model"
	"salesforecast/pkg/storage"
)

// Trainer fits and evaluates every model on one dataset.
type Trainer struct {
	cfg    config.TrainConfig
	writer storage.MetricsWriter
}

// NewTrainer returns a trainer. writer may be nil.
func NewTrainer(cfg config.TrainConfig, writer storage.MetricsWriter) *Trainer {
	return &Trainer{cfg: cfg, writer: writer}
}

// Result is the outcome of one training run.
type Result struct {
	RunID         string
	Frame         *Frame
	Models        map[string]model.Regressor
	Evaluations   []model.Evaluation
	Decomposition *model.SeasonalDecomposition
	Forecast      []float64
	ForecastDates []time.Time
	Bundle        *artifact.Bundle
}

// Save persists the serving bundle into dir.
func (r *Result) Save(dir string) error {
	return artifact.Save(dir, r.Bundle)
}

func (t *Trainer) regressors() []model.Regressor {
	b, l := t.cfg.Boosting, t.cfg.LSTM
	return []model.Regressor{
		model.NewLinearRegression(),
		model.NewGradientBoosting(
			model.WithNEstimators(b.Estimators),
			model.WithLearningRate(b.LearningRate),
			model.WithTreeDepth(b.MaxDepth),
		),
		model.NewLSTM(
			model.WithUnits(l.Units),
			model.WithEpochs(l.Epochs),
			model.WithBatchSize(l.BatchSize),
			model.WithLSTMLearningRate(l.LearningRate),
			model.WithSeqLen(l.SequenceLength),
			model.WithOptimizer(l.Optimizer),
			model.WithSeed(t.cfg.Seed),
		),
	}
}

// Run prepares features, fits every model on the earlier part of the data
// and scores it on the later part. Scores are on the sales scale.
func (t *Trainer) Run(ctx context.Context, table *data.Table) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Models: map[string]model.Regressor{}}
	log.Infof("Training run %s on %d rows", res.RunID, table.Len())

	frame, err := DefaultPipeline().Run(table)
	if err != nil {
		return nil, err
	}
	res.Frame = frame
	log.Infof("Prepared %d rows x %d features", len(frame.X), len(frame.Schema.FeatureNames))

	XTrain, XTest, yTrain, yTest, err := loader.TimeOrderedSplit(frame.X, frame.Y, t.cfg.TestFraction)
	if err != nil {
		return nil, fmt.Errorf("pipeline: split: %w", err)
	}
	log.Infof("Train rows: %d, test rows: %d", len(XTrain), len(XTest))
	actual := dataprep.InverseLogTransform(yTest)

	for _, m := range t.regressors() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		if err := m.Fit(XTrain, yTrain); err != nil {
			return nil, fmt.Errorf("pipeline: fit %s: %w", m.Name(), err)
		}
		pred := dataprep.InverseLogTransform(m.Predict(XTest))
		ev := model.Evaluate(res.RunID, m.Name(), actual, pred)
		log.Infof("%-13s MAE=%.2f RMSE=%.2f R2=%.4f (%s)", m.Name(), ev.MAE, ev.RMSE, ev.R2, time.Since(start).Round(time.Millisecond))
		if m.Name() == model.KindBoosting {
			_, mean, std := model.Residuals(actual, pred)
			log.Infof("%-13s residual mean=%.2f std=%.2f", m.Name(), mean, std)
		}
		res.Models[m.Name()] = m
		res.Evaluations = append(res.Evaluations, ev)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ev, err := t.fitDecomposition(res, frame.Table)
	if err != nil {
		log.Warningf("Skipping decomposition model: %v", err)
	} else {
		res.Evaluations = append(res.Evaluations, ev)
	}

	served, ok := res.Models[t.cfg.Model]
	if !ok {
		return nil, fmt.Errorf("pipeline: no fitted model named %q to serve", t.cfg.Model)
	}
	res.Bundle = &artifact.Bundle{
		Model:        served,
		Encoder:      frame.Encoder,
		Scaler:       frame.Scaler,
		FeatureOrder: frame.Schema.FeatureNames,
		Manifest:     artifact.Manifest{RunID: res.RunID},
	}

	if t.writer != nil {
		if err := t.writer.Write(ctx, res.Evaluations); err != nil {
			return nil, fmt.Errorf("pipeline: store evaluations: %w", err)
		}
	}
	return res, nil
}

func (t *Trainer) fitDecomposition(res *Result, table *data.Table) (model.Evaluation, error) {
	cfg := t.cfg.Decomposition
	dates, daily, err := dataprep.DailySales(table)
	if err != nil {
		return model.Evaluation{}, err
	}
	cut, err := loader.SplitIndex(len(daily), t.cfg.TestFraction)
	if err != nil {
		return model.Evaluation{}, err
	}

	held := model.NewSeasonalDecomposition(cfg.Period, cfg.Horizon)
	if err := held.Fit(dates[:cut], daily[:cut]); err != nil {
		return model.Evaluation{}, err
	}
	ev := model.Evaluate(res.RunID, held.Name(), daily[cut:], held.Forecast(len(daily)-cut))
	log.Infof("%-13s MAE=%.2f RMSE=%.2f R2=%.4f (daily mean sales, Ljung-Box p=%.4f)",
		held.Name(), ev.MAE, ev.RMSE, ev.R2, held.ResidualPValue)

	full := model.NewSeasonalDecomposition(cfg.Period, cfg.Horizon)
	if err := full.Fit(dates, daily); err != nil {
		return model.Evaluation{}, err
	}
	res.Decomposition = full
	res.Forecast = full.Forecast(cfg.Horizon)
	res.ForecastDates = full.ForecastDates(cfg.Horizon)
	return ev, nil
}
