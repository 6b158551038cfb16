package query

type TrainPosition struct {
	TrainIdent string
}

type TrainPositions struct {
	TrainIdents []string
}
