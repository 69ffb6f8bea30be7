package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"coord-api/pkg/coordtransform"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator 注册 coordsys 标签：取值须能被 ParseSystem 识别
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("coordsys", func(fl validator.FieldLevel) bool {
		_, err := coordtransform.ParseSystem(fl.Field().String())
		return err == nil
	})
	return v
}

type pointDTO struct {
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
}

func (p pointDTO) point() coordtransform.GeoPoint { return coordtransform.NewGeoPoint(*p.Lng, *p.Lat) }

type batchRequest struct {
	From   string     `json:"from" validate:"required,coordsys"`
	To     string     `json:"to" validate:"required,coordsys"`
	Points []pointDTO `json:"points" validate:"required,min=1,dive"`
}

// 单点查询参数（GET），字段缺省由 queryPoint 预先判定
type pointQuery struct {
	Lng float64 `validate:"gte=-180,lte=180"`
	Lat float64 `validate:"gte=-90,lte=90"`
	Sys string  `validate:"omitempty,coordsys"`
}

// describeValidation 将校验错误转为对外可读的消息
func describeValidation(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		if ns := fe.Namespace(); strings.Contains(ns, "[") {
			field = strings.ToLower(ns[strings.Index(ns, ".")+1:])
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "coordsys":
			msgs = append(msgs, fmt.Sprintf("%s: unknown coordinate system %q", field, fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(msgs, "; ")
}

// queryPoint 读取 lng/lat 与坐标系参数（sysKey 为空时不读取），非法时返回可直接对外的错误
func queryPoint(q url.Values, sysKey, defSys string) (coordtransform.GeoPoint, coordtransform.System, error) {
	var pq pointQuery
	for _, f := range []struct {
		key string
		dst *float64
	}{{"lng", &pq.Lng}, {"lat", &pq.Lat}} {
		s := strings.TrimSpace(q.Get(f.key))
		if s == "" {
			return coordtransform.GeoPoint{}, 0, fmt.Errorf("%s is required", f.key)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return coordtransform.GeoPoint{}, 0, fmt.Errorf("%s: not a number", f.key)
		}
		*f.dst = v
	}
	pq.Sys = defSys
	if sysKey != "" {
		if s := strings.TrimSpace(q.Get(sysKey)); s != "" {
			pq.Sys = s
		}
	}
	if err := validate.Struct(pq); err != nil {
		return coordtransform.GeoPoint{}, 0, errors.New(describeValidation(err))
	}
	sys, err := coordtransform.ParseSystem(pq.Sys)
	if err != nil {
		return coordtransform.GeoPoint{}, 0, err
	}
	return coordtransform.NewGeoPoint(pq.Lng, pq.Lat), sys, nil
}

// querySystem 读取可选的坐标系参数
func querySystem(r *http.Request, key, def string) (coordtransform.System, error) {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		s = def
	}
	return coordtransform.ParseSystem(s)
}
