package decoder

import (
	"fmt"
	"math"

	"github.com/jmbenlloch/go-hdf5"
)

type RawEventHDF5 struct {
	module    int32
	timestamp uint64
	channel   int32
	adc       int32
}

type ClusterHDF5 struct {
	module    int32
	timestamp uint64
	tof       int64
	wch       int32
	gch       int32
	wadc      int32
	gadc      int32
	wm        int32
	gm        int32
	x         float64
	y         float64
	z         float64
	d         float64
	dE        float64
}

type TriggerHDF5 struct {
	timestamp uint64
}

type ModuleHDF5 struct {
	module  int32
	family  [STRLEN]byte
	theta   float64
	offsetX float64
	offsetY float64
	offsetZ float64
}

type RunInfoHDF5 struct {
	energySetting  [STRLEN]byte
	ei             float64
	sourceToSample float64
	words          int64
	windows        int64
	malformed      int64
	truncated      int64
}

const STRLEN = 20

// Chunk length of every table
const TABLE_CHUNK = 32768

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func rawEventToHDF5(event RawEvent) RawEventHDF5 {
	return RawEventHDF5{
		module:    int32(event.Module),
		timestamp: event.Timestamp,
		channel:   int32(event.Channel),
		adc:       int32(event.ADC),
	}
}

// Missing channels are written as -1, missing coordinates and energies as
// NaN.
func clusterToHDF5(event ClusteredEvent) ClusterHDF5 {
	row := ClusterHDF5{
		module:    int32(event.Module),
		timestamp: event.Timestamp,
		tof:       event.ToF,
		wch:       -1,
		gch:       -1,
		wadc:      int32(event.WireADC),
		gadc:      int32(event.GridADC),
		wm:        int32(event.WireMultiplicity),
		gm:        int32(event.GridMultiplicity),
		x:         math.NaN(),
		y:         math.NaN(),
		z:         math.NaN(),
		d:         math.NaN(),
		dE:        math.NaN(),
	}
	if event.Wire.Set {
		row.wch = int32(event.Wire.Channel)
	}
	if event.Grid.Set {
		row.gch = int32(event.Grid.Channel)
	}
	if event.Coordinate != nil {
		row.x = event.Coordinate.X
		row.y = event.Coordinate.Y
		row.z = event.Coordinate.Z
	}
	if event.Distance != nil {
		row.d = *event.Distance
	}
	if event.EnergyTransfer != nil {
		row.dE = *event.EnergyTransfer
	}
	return row
}

func moduleToHDF5(m ModuleGeometry) ModuleHDF5 {
	return ModuleHDF5{
		module:  int32(m.Module),
		family:  convertToHdf5String(m.Family.String()),
		theta:   m.Theta,
		offsetX: m.Offset.X,
		offsetY: m.Offset.Y,
		offsetZ: m.Offset.Z,
	}
}

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}, compressionLevel int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	file_space, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer file_space.Close()

	// create property list
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	chunks := []uint{TABLE_CHUNK}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	if compressionLevel > 0 {
		if err := plist.SetDeflate(compressionLevel); err != nil {
			return nil, &ErrCreateTable{TableName: name, Err: err}
		}
	}

	// create the memory data type
	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, file_space, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T, rowCounter int) error {
	array := []T{data}
	return writeArrayToTable(dataset, &array, rowCounter)
}

// writeArrayToTable appends data after the first rowCounter rows of the
// table. Empty slices are skipped.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, rowCounter int) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("error creating memory dataspace: %w", err)
	}
	defer dataspace.Close()

	// extend
	rowsInFile := uint(rowCounter)
	newsize := []uint{rowsInFile + length}
	if err := dataset.Resize(newsize); err != nil {
		return fmt.Errorf("error extending table to %d rows: %w", rowsInFile+length, err)
	}
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{rowsInFile}
	count := []uint{length}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return fmt.Errorf("error selecting rows: %w", err)
	}

	if err := dataset.WriteSubset(data, dataspace, filespace); err != nil {
		return fmt.Errorf("error writing %d rows: %w", length, err)
	}
	return nil
}
