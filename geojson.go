package egms2risk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// crsRef Legacy GeoJSON "crs" member (named CRS), the convention QGIS and
// GDAL emit for non-WGS84 collections
type crsRef struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

func newCRSRef(crs CRS) *crsRef {
	ref := &crsRef{Type: "name"}
	ref.Properties.Name = fmt.Sprintf("urn:ogc:def:crs:EPSG::%d", int(crs))
	return ref
}

// parseCRSRef extracts an EPSG code from "urn:ogc:def:crs:EPSG::2157" or
// "EPSG:2157" style names
func parseCRSRef(ref *crsRef) (CRS, error) {
	if ref == nil {
		// GeoJSON default per RFC 7946
		return EPSG_4326, nil
	}
	name := ref.Properties.Name
	idx := strings.LastIndexAny(name, ":")
	if idx < 0 || idx == len(name)-1 {
		return 0, errors.Errorf("Can't parse CRS name '%s'", name)
	}
	code, err := strconv.Atoi(name[idx+1:])
	if err != nil {
		return 0, errors.Wrapf(err, "Can't parse CRS name '%s'", name)
	}
	return CRS(code), nil
}

// featureCollectionFile GeoJSON FeatureCollection with the legacy crs member
type featureCollectionFile struct {
	Type     string             `json:"type"`
	Name     string             `json:"name,omitempty"`
	CRS      *crsRef            `json:"crs,omitempty"`
	Features []*geojson.Feature `json:"features"`
}

func readFeatureCollection(fileName string) (*featureCollectionFile, CRS, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, 0, errors.Wrap(err, "File open")
	}
	fc := &featureCollectionFile{}
	if err := json.Unmarshal(data, fc); err != nil {
		return nil, 0, errors.Wrapf(err, "Can't parse GeoJSON file '%s'", fileName)
	}
	crs, err := parseCRSRef(fc.CRS)
	if err != nil {
		return nil, 0, err
	}
	return fc, crs, nil
}

// writeFeatureCollection writes the collection atomically: to a temporary
// file first, renamed into place on success, so a failed run leaves no
// partial output behind.
func writeFeatureCollection(fileName string, fc *featureCollectionFile) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return errors.Wrap(err, "Can't encode feature collection")
	}
	return writeFileAtomic(fileName, data)
}

func writeFileAtomic(fileName string, data []byte) error {
	dir := filepath.Dir(fileName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "Can't create output directory")
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "Can't create temporary file")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "Can't write output")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "Can't close output")
	}
	if err := os.Rename(tmp.Name(), fileName); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "Can't move output into place")
	}
	return nil
}

// ReadInfraGeoJSON loads infrastructure features from a GeoJSON file. The
// class is read from the 'class' (or legacy 'infra_type') property; features
// with an unknown class or missing geometry are returned as-is with zero
// class / nil geometry and dealt with by the buffer builder.
func ReadInfraGeoJSON(fileName string) ([]InfraFeature, CRS, error) {
	fc, crs, err := readFeatureCollection(fileName)
	if err != nil {
		return nil, 0, err
	}
	features := make([]InfraFeature, 0, len(fc.Features))
	for i, f := range fc.Features {
		className := f.Properties.MustString("class", "")
		if className == "" {
			className = strings.ToLower(f.Properties.MustString("infra_type", ""))
		}
		feature := InfraFeature{
			ID:    featureID(f, i),
			Class: getInfraClass(className),
			Geom:  f.Geometry,
		}
		features = append(features, feature)
	}
	return features, crs, nil
}

func featureID(f *geojson.Feature, idx int) string {
	if f.ID != nil {
		return fmt.Sprintf("%v", f.ID)
	}
	if id := f.Properties.MustString("id", ""); id != "" {
		return id
	}
	return strconv.Itoa(idx)
}

// WriteBufferZonesGeoJSON writes one feature per buffer zone (the rendered
// buffer polygon with class and distance tags)
func WriteBufferZonesGeoJSON(fileName string, zones []BufferZone, crs CRS) error {
	fc := &featureCollectionFile{
		Type: "FeatureCollection",
		Name: strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName)),
		CRS:  newCRSRef(crs),
	}
	for i := range zones {
		f := geojson.NewFeature(zones[i].Ring)
		f.ID = zones[i].FeatureID
		f.Properties["id"] = zones[i].FeatureID
		f.Properties["class"] = zones[i].Class.String()
		f.Properties["buffer_m"] = zones[i].Distance
		fc.Features = append(fc.Features, f)
	}
	return writeFeatureCollection(fileName, fc)
}

// WriteClassZoneGeoJSON writes the merged query zone of one class: the
// reprojected source geometries with the class buffer distance attached.
// Stage 2 rebuilds its containment test from this file, which keeps the
// join exact regardless of how the rendered rings were discretized.
func WriteClassZoneGeoJSON(fileName string, zone ClassZone, crs CRS) error {
	fc := &featureCollectionFile{
		Type: "FeatureCollection",
		Name: strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName)),
		CRS:  newCRSRef(crs),
	}
	for i, geom := range zone.Sources {
		f := geojson.NewFeature(geom)
		f.Properties["id"] = strconv.Itoa(i)
		f.Properties["class"] = zone.Class.String()
		f.Properties["buffer_m"] = zone.Distance
		fc.Features = append(fc.Features, f)
	}
	return writeFeatureCollection(fileName, fc)
}

// ReadClassZoneGeoJSON loads a merged query zone written by
// WriteClassZoneGeoJSON. Fails if the file CRS is not the expected metric
// CRS of the join.
func ReadClassZoneGeoJSON(fileName string, expected CRS) (ClassZone, error) {
	fc, crs, err := readFeatureCollection(fileName)
	if err != nil {
		return ClassZone{}, err
	}
	if crs != expected {
		return ClassZone{}, errors.Errorf("CRS mismatch in '%s': got %s, want %s", fileName, crs, expected)
	}
	zone := ClassZone{}
	for _, f := range fc.Features {
		if zone.Class == 0 {
			zone.Class = getInfraClass(f.Properties.MustString("class", ""))
			zone.Distance = f.Properties.MustFloat64("buffer_m", 0)
		}
		if f.Geometry != nil {
			zone.Sources = append(zone.Sources, f.Geometry)
		}
	}
	if zone.Class == 0 {
		return ClassZone{}, errors.Errorf("No class tag found in '%s'", fileName)
	}
	return zone, nil
}

// WriteJoinedGeoJSON writes the joined points (metric CRS) with their class
// annotations, for inspection in a desktop GIS
func WriteJoinedGeoJSON(fileName string, joined []JoinedPoint, crs CRS) error {
	fc := &featureCollectionFile{
		Type: "FeatureCollection",
		Name: strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName)),
		CRS:  newCRSRef(crs),
	}
	for i := range joined {
		jp := joined[i]
		f := geojson.NewFeature(jp.Point.Geom)
		f.Properties["pid"] = jp.Point.ID
		f.Properties["velocity"] = jp.Point.Velocity
		f.Properties["class"] = jp.Primary.String()
		f.Properties["classes"] = classesString(jp.Classes)
		if jp.Point.FirstDate != "" {
			f.Properties["first_date"] = jp.Point.FirstDate
		}
		if jp.Point.LastDate != "" {
			f.Properties["last_date"] = jp.Point.LastDate
		}
		fc.Features = append(fc.Features, f)
	}
	return writeFeatureCollection(fileName, fc)
}

// ReadMeasurementGeoJSON loads EGMS measurement points from a GeoJSON file.
// Velocity is read from the 'velocity' (or 'mean_velocity') property.
func ReadMeasurementGeoJSON(fileName string) ([]MeasurementPoint, CRS, error) {
	fc, crs, err := readFeatureCollection(fileName)
	if err != nil {
		return nil, 0, err
	}
	points := make([]MeasurementPoint, 0, len(fc.Features))
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, 0, errors.Errorf("Feature %d is not a point", i)
		}
		velocity := f.Properties.MustFloat64("velocity", f.Properties.MustFloat64("mean_velocity", 0))
		id := f.Properties.MustString("pid", "")
		if id == "" {
			id = featureID(f, i)
		}
		points = append(points, MeasurementPoint{
			ID:        id,
			Geom:      pt,
			Velocity:  velocity,
			FirstDate: f.Properties.MustString("first_date", ""),
			LastDate:  f.Properties.MustString("last_date", ""),
		})
	}
	return points, crs, nil
}

func classesString(classes []InfraClass) string {
	names := make([]string, len(classes))
	for i, class := range classes {
		names[i] = class.String()
	}
	return strings.Join(names, ",")
}

// parseClasses is the inverse of classesString, unknown names are dropped
func parseClasses(str string) []InfraClass {
	if str == "" {
		return nil
	}
	out := []InfraClass{}
	for _, name := range strings.Split(str, ",") {
		if class := getInfraClass(strings.TrimSpace(name)); class != 0 {
			out = append(out, class)
		}
	}
	return out
}

// WriteInfraGeoJSON writes infrastructure features with their class tags
func WriteInfraGeoJSON(fileName string, features []InfraFeature, crs CRS) error {
	fc := &featureCollectionFile{
		Type: "FeatureCollection",
		Name: strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName)),
		CRS:  newCRSRef(crs),
	}
	for i := range features {
		f := geojson.NewFeature(features[i].Geom)
		f.ID = features[i].ID
		f.Properties["id"] = features[i].ID
		f.Properties["class"] = features[i].Class.String()
		fc.Features = append(fc.Features, f)
	}
	return writeFeatureCollection(fileName, fc)
}
