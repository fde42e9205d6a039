package rpc

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/types/known/emptypb"

	"hydrogen/hydrogen"
)

func ReqStat(ctx context.Context, reqID string) (ReqStatus, error) {
	var err error

	if reqID == "" {
		return ReqStatus{}, errReqEmpty
	}

	if serverClient == nil {
		return ReqStatus{}, errNotConnected
	}

	var res *hydrogen.ReqStatus

	res, err = serverClient.RequestStatus(ctx, &hydrogen.RequestID{Value: reqID})
	if err != nil {
		return ReqStatus{}, fmt.Errorf("request error: %w", wrapNotFound(err))
	}

	rv := ReqStatus{
		Complete:   res.Complete,
		Success:    res.Success,
		InProgress: res.InProgress,
	}

	return rv, nil
}

func GetHostInfo(ctx context.Context) (hydrogen.HostInfo, error) {
	if serverClient == nil {
		return hydrogen.HostInfo{}, errNotConnected
	}

	res, err := serverClient.GetHostInfo(ctx, &emptypb.Empty{})
	if err != nil {
		return hydrogen.HostInfo{}, fmt.Errorf("unable to get host info: %w", err)
	}

	return *res, nil
}
