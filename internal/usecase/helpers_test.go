package usecase_test

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/mock/gomock"

	"github.com/iho/fundsbook/internal/domain"
	"github.com/iho/fundsbook/internal/usecase/mocks"
)

// expectCommittedTx makes txMgr hand out one transaction that is committed.
func expectCommittedTx(ctrl *gomock.Controller, txMgr *mocks.MockTransactionManager) *mocks.MockTransaction {
	tx := mocks.NewMockTransaction(ctrl)
	tx.EXPECT().Commit(gomock.Any()).Return(nil)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
	txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	return tx
}

func sequentialIDs(ctrl *gomock.Controller) *mocks.MockIDGenerator {
	var n atomic.Int64
	idGen := mocks.NewMockIDGenerator(ctrl)
	idGen.EXPECT().Generate().DoAndReturn(func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	}).AnyTimes()
	return idGen
}

func memberBook(id, shelfID string, members ...string) *domain.Book {
	return &domain.Book{ID: id, BookshelfID: shelfID, Name: "Household", MemberIDs: members}
}
