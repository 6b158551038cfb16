package ctdf

import "time"

// ArchivedTrain is the flattened record of a finished train run kept after
// its snapshot has expired
type ArchivedTrain struct {
	PrimaryIdentifier string

	TrainIdent string
	RunDate    time.Time

	Status TrainSnapshotStatus

	Stations []*ArchivedTrainStation

	CreationDateTime     time.Time
	ModificationDateTime time.Time

	DataSource *DataSource
}

type ArchivedTrainStation struct {
	Signature string
	Name      string

	IsAnnounced bool

	ScheduledTime *time.Time
	ActualTime    *time.Time
	Delay         Delay

	Track    string
	Canceled bool
}

func NewArchivedTrain(snapshot *TrainSnapshot) *ArchivedTrain {
	archived := &ArchivedTrain{
		PrimaryIdentifier: snapshot.PrimaryIdentifier,

		TrainIdent: snapshot.TrainIdent,
		RunDate:    snapshot.RunDate,

		Status: snapshot.Status,

		Stations: []*ArchivedTrainStation{},

		CreationDateTime:     snapshot.CreationDateTime,
		ModificationDateTime: snapshot.ModificationDateTime,

		DataSource: snapshot.DataSource,
	}

	for _, node := range snapshot.Route.Nodes {
		archived.Stations = append(archived.Stations, &ArchivedTrainStation{
			Signature:     node.Signature,
			Name:          snapshot.StationName(node.Signature),
			IsAnnounced:   node.IsAnnounced,
			ScheduledTime: node.ScheduledTime,
			ActualTime:    node.ActualTime,
			Delay:         node.Delay(),
			Track:         node.Track,
			Canceled:      node.Canceled,
		})
	}

	return archived
}
